package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/paste-go/internal/messaging"
)

// Publishers carries one typed publish function per paste event topic.
type Publishers struct {
	Created  messaging.Publish[PasteCreatedEvent]
	Accessed messaging.Publish[PasteAccessedEvent]
	Expired  messaging.Publish[PasteExpiredEvent]
	Deleted  messaging.Publish[PasteDeletedEvent]
}

// NewPublishers binds every paste event topic to publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		Created:  messaging.NewPublishFunc[PasteCreatedEvent](publisher, TopicPasteCreated),
		Accessed: messaging.NewPublishFunc[PasteAccessedEvent](publisher, TopicPasteAccessed),
		Expired:  messaging.NewPublishFunc[PasteExpiredEvent](publisher, TopicPasteExpired),
		Deleted:  messaging.NewPublishFunc[PasteDeletedEvent](publisher, TopicPasteDeleted),
	}
}
