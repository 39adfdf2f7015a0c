// Package kvtest is a conformance suite for kv.Engine implementations.
package kvtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/serroba/paste-go/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

// Run exercises engine against the kv.Engine contract. Keys are namespaced
// with a random prefix so the suite can run against a shared server.
func Run(t *testing.T, engine kv.Engine) {
	t.Helper()

	ctx := context.Background()
	prefix := uuid.NewString() + "/"

	key := func(name string) []byte { return []byte(prefix + name) }

	get := func(t *testing.T, bucket kv.Bucket, k []byte) ([]byte, error) {
		t.Helper()

		var value []byte

		err := engine.View(ctx, func(r kv.Reader) error {
			v, err := r.Get(bucket, k)
			value = v

			return err
		})

		return value, err
	}

	t.Run("ping succeeds", func(t *testing.T) {
		require.NoError(t, engine.Ping(ctx))
	})

	t.Run("get of a missing key returns ErrKeyNotFound", func(t *testing.T) {
		_, err := get(t, kv.Records, key("missing"))

		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("insert is visible after commit", func(t *testing.T) {
		err := engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Insert(kv.Records, key("insert"), []byte("v1"))
		})
		require.NoError(t, err)

		got, err := get(t, kv.Records, key("insert"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("insert of an existing key returns ErrKeyExists", func(t *testing.T) {
		k := key("insert-twice")
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Insert(kv.ShortCodes, k, []byte("first"))
		}))

		err := engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Insert(kv.ShortCodes, k, []byte("second"))
		})
		require.ErrorIs(t, err, kv.ErrKeyExists)

		got, err := get(t, kv.ShortCodes, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		err := engine.Update(ctx, func(tx kv.Tx) error {
			if err := tx.Insert(kv.Records, key("rollback-record"), []byte("r")); err != nil {
				return err
			}

			if err := tx.Insert(kv.Aliases, key("rollback-alias"), []byte("a")); err != nil {
				return err
			}

			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		_, err = get(t, kv.Records, key("rollback-record"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)

		_, err = get(t, kv.Aliases, key("rollback-alias"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("a key-exists failure rolls back earlier writes", func(t *testing.T) {
		taken := key("taken")
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Insert(kv.Aliases, taken, []byte("owner"))
		}))

		err := engine.Update(ctx, func(tx kv.Tx) error {
			if err := tx.Insert(kv.Records, key("partial"), []byte("r")); err != nil {
				return err
			}

			return tx.Insert(kv.Aliases, taken, []byte("intruder"))
		})
		require.ErrorIs(t, err, kv.ErrKeyExists)

		_, err = get(t, kv.Records, key("partial"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		k := key("put")
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.Records, k, []byte("old"))
		}))
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.Records, k, []byte("new"))
		}))

		got, err := get(t, kv.Records, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("delete removes the key and tolerates absent keys", func(t *testing.T) {
		k := key("delete")
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.Records, k, []byte("v"))
		}))

		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			if err := tx.Delete(kv.Records, k); err != nil {
				return err
			}

			return tx.Delete(kv.Records, key("never-written"))
		}))

		_, err := get(t, kv.Records, k)
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("transactions read their own writes", func(t *testing.T) {
		k := key("own-writes")

		err := engine.Update(ctx, func(tx kv.Tx) error {
			if err := tx.Put(kv.Records, k, []byte("staged")); err != nil {
				return err
			}

			got, err := tx.Get(kv.Records, k)
			if err != nil {
				return err
			}

			assert.Equal(t, []byte("staged"), got)

			if err := tx.Delete(kv.Records, k); err != nil {
				return err
			}

			_, err = tx.Get(kv.Records, k)
			assert.ErrorIs(t, err, kv.ErrKeyNotFound)

			return tx.Insert(kv.Records, k, []byte("reinserted"))
		})
		require.NoError(t, err)

		got, err := get(t, kv.Records, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("reinserted"), got)
	})

	t.Run("buckets are isolated", func(t *testing.T) {
		k := key("shared-name")
		require.NoError(t, engine.Update(ctx, func(tx kv.Tx) error {
			return tx.Put(kv.ShortCodes, k, []byte("code"))
		}))

		_, err := get(t, kv.Aliases, k)
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)

		_, err = get(t, kv.Records, k)
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("unknown bucket is rejected", func(t *testing.T) {
		_, err := get(t, kv.Bucket("nope"), key("x"))

		assert.ErrorIs(t, err, kv.ErrUnknownBucket)
	})

	t.Run("concurrent inserts of one key have a single winner", func(t *testing.T) {
		const writers = 8

		k := key("contended")

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			wins     int
			failures int
		)

		for i := range writers {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				err := engine.Update(ctx, func(tx kv.Tx) error {
					return tx.Insert(kv.Aliases, k, []byte{byte(i)})
				})

				mu.Lock()
				defer mu.Unlock()

				if err == nil {
					wins++

					return
				}

				if errors.Is(err, kv.ErrKeyExists) || errors.Is(err, kv.ErrConflict) {
					failures++
				}
			}(i)
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, failures)
	})
}
