package paste_test

import (
	"testing"
	"time"

	"github.com/serroba/paste-go/internal/paste"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no destroy time never expires", func(t *testing.T) {
		assert.False(t, paste.Expired(&paste.Record{}, now))
	})

	t.Run("future destroy time is live", func(t *testing.T) {
		destroy := now.Add(time.Second)

		assert.False(t, paste.Expired(&paste.Record{DestroyTime: &destroy}, now))
	})

	t.Run("destroy time equal to now is expired", func(t *testing.T) {
		destroy := now

		assert.True(t, paste.Expired(&paste.Record{DestroyTime: &destroy}, now))
	})

	t.Run("past destroy time is expired", func(t *testing.T) {
		destroy := now.Add(-time.Minute)

		assert.True(t, paste.Expired(&paste.Record{DestroyTime: &destroy}, now))
	})
}

func TestExpiresIn(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("positive seconds are added to now", func(t *testing.T) {
		got := paste.ExpiresIn(now, 90)

		require.NotNil(t, got)
		assert.True(t, now.Add(90*time.Second).Equal(*got))
	})

	t.Run("zero or negative seconds mean no expiry", func(t *testing.T) {
		assert.Nil(t, paste.ExpiresIn(now, 0))
		assert.Nil(t, paste.ExpiresIn(now, -5))
	})
}
