package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/paste-go/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds a consumer per paste event topic to group, each
// persisting its events to store.
func RegisterConsumers(group *messaging.ConsumerGroup, subscriber message.Subscriber, store Store, logger *zap.Logger) {
	group.Add(messaging.NewConsumer(subscriber, TopicPasteCreated, store.SavePasteCreated, logger))
	group.Add(messaging.NewConsumer(subscriber, TopicPasteAccessed, store.SavePasteAccessed, logger))
	group.Add(messaging.NewConsumer(subscriber, TopicPasteExpired, store.SavePasteExpired, logger))
	group.Add(messaging.NewConsumer(subscriber, TopicPasteDeleted, store.SavePasteDeleted, logger))
}
