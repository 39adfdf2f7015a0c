package store_test

import (
	"context"
	"testing"

	"github.com/serroba/paste-go/internal/kv"
	"github.com/serroba/paste-go/internal/kv/kvtest"
	"github.com/serroba/paste-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEngine(t *testing.T) {
	kvtest.Run(t, store.NewMemoryEngine())
}

func TestMemoryEngine_Isolation(t *testing.T) {
	t.Run("mutating a returned value does not change the stored value", func(t *testing.T) {
		ctx := context.Background()
		e := store.NewMemoryEngine()
		require.NoError(t, e.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.Records, []byte("k"), []byte("value"))
		}))

		require.NoError(t, e.View(ctx, func(r kv.Reader) error {
			got, err := r.Get(kv.Records, []byte("k"))
			require.NoError(t, err)
			got[0] = 'X'

			return nil
		}))

		require.NoError(t, e.View(ctx, func(r kv.Reader) error {
			got, err := r.Get(kv.Records, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), got)

			return nil
		}))
	})

	t.Run("mutating the input after put does not change the stored value", func(t *testing.T) {
		ctx := context.Background()
		e := store.NewMemoryEngine()
		input := []byte("value")
		require.NoError(t, e.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.Records, []byte("k"), input)
		}))
		input[0] = 'X'

		require.NoError(t, e.View(ctx, func(r kv.Reader) error {
			got, err := r.Get(kv.Records, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), got)

			return nil
		}))
	})
}
