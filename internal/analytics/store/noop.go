package store

import (
	"context"

	"github.com/serroba/paste-go/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SavePasteCreated(_ context.Context, event *analytics.PasteCreatedEvent) error {
	n.logger.Info("paste created event received",
		zap.String("id", event.ID),
		zap.String("short", event.ShortCode),
		zap.String("kind", event.Kind),
		zap.Int("size", event.Size),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SavePasteAccessed(_ context.Context, event *analytics.PasteAccessedEvent) error {
	n.logger.Info("paste accessed event received",
		zap.String("key", event.Key),
		zap.String("id", event.ID),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

func (n *Noop) SavePasteExpired(_ context.Context, event *analytics.PasteExpiredEvent) error {
	n.logger.Info("paste expired event received",
		zap.String("key", event.Key),
		zap.Time("expiredAt", event.ExpiredAt),
	)

	return nil
}

func (n *Noop) SavePasteDeleted(_ context.Context, event *analytics.PasteDeletedEvent) error {
	n.logger.Info("paste deleted event received",
		zap.String("id", event.ID),
		zap.Time("deletedAt", event.DeletedAt),
	)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
