package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/paste-go/internal/analytics"
	"github.com/serroba/paste-go/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()

	t.Run("logs every event type", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		noop := store.NewNoop(zap.New(core))
		now := time.Now()

		assert.NoError(t, noop.SavePasteCreated(ctx, &analytics.PasteCreatedEvent{ID: "1", CreatedAt: now}))
		assert.NoError(t, noop.SavePasteAccessed(ctx, &analytics.PasteAccessedEvent{ID: "1", AccessedAt: now}))
		assert.NoError(t, noop.SavePasteExpired(ctx, &analytics.PasteExpiredEvent{Key: "1", ExpiredAt: now}))
		assert.NoError(t, noop.SavePasteDeleted(ctx, &analytics.PasteDeletedEvent{ID: "1", DeletedAt: now}))

		assert.Equal(t, 4, logs.Len())
		assert.Equal(t, 1, logs.FilterMessage("paste created event received").Len())
		assert.Equal(t, 1, logs.FilterMessage("paste deleted event received").Len())
	})
}
