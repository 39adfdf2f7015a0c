package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SavePasteCreated(ctx context.Context, event *PasteCreatedEvent) error
	SavePasteAccessed(ctx context.Context, event *PasteAccessedEvent) error
	SavePasteExpired(ctx context.Context, event *PasteExpiredEvent) error
	SavePasteDeleted(ctx context.Context, event *PasteDeletedEvent) error
}
