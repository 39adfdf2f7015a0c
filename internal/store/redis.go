package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/paste-go/internal/kv"
)

// RedisEngine is a Redis implementation of kv.Engine.
// Update uses WATCH/MULTI/EXEC: every key read inside the transaction is
// watched, and EXEC aborts with kv.ErrConflict if any of them changed.
type RedisEngine struct {
	client *redis.Client
	prefix string // "paste:" then "<bucket>:<key>"
}

// NewRedisEngine creates a new Redis-backed engine.
func NewRedisEngine(client *redis.Client) *RedisEngine {
	return &RedisEngine{
		client: client,
		prefix: "paste:",
	}
}

func (r *RedisEngine) redisKey(bucket kv.Bucket, key []byte) string {
	return r.prefix + string(bucket) + ":" + string(key)
}

func (r *RedisEngine) View(ctx context.Context, fn func(kv.Reader) error) error {
	return fn(&redisReader{ctx: ctx, engine: r, cmd: r.client})
}

func (r *RedisEngine) Update(ctx context.Context, fn func(kv.Tx) error) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		rtx := &redisTx{
			redisReader: redisReader{ctx: ctx, engine: r, cmd: tx},
			tx:          tx,
			staged:      make(map[string][]byte),
		}

		if err := fn(rtx); err != nil {
			return err
		}

		if len(rtx.order) == 0 {
			return nil
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range rtx.order {
				value := rtx.staged[key]
				if value == nil {
					pipe.Del(ctx, key)

					continue
				}

				pipe.Set(ctx, key, value, 0)
			}

			return nil
		})

		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %w", kv.ErrConflict, err)
	}

	return err
}

func (r *RedisEngine) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close is a no-op; the client is managed by the container.
func (r *RedisEngine) Close() error {
	return nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisReader struct {
	ctx    context.Context
	engine *RedisEngine
	cmd    stringGetter
}

func (rr *redisReader) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	if !kv.ValidBucket(bucket) {
		return nil, kv.ErrUnknownBucket
	}

	return rr.get(rr.engine.redisKey(bucket, key))
}

func (rr *redisReader) get(redisKey string) ([]byte, error) {
	value, err := rr.cmd.Get(rr.ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrKeyNotFound
		}

		return nil, err
	}

	return value, nil
}

// redisTx stages writes until EXEC. A nil staged value marks a deletion.
type redisTx struct {
	redisReader
	tx     *redis.Tx
	staged map[string][]byte
	order  []string
}

func (rt *redisTx) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	if !kv.ValidBucket(bucket) {
		return nil, kv.ErrUnknownBucket
	}

	redisKey := rt.engine.redisKey(bucket, key)

	if value, ok := rt.staged[redisKey]; ok {
		if value == nil {
			return nil, kv.ErrKeyNotFound
		}

		return bytes.Clone(value), nil
	}

	if err := rt.tx.Watch(rt.ctx, redisKey).Err(); err != nil {
		return nil, err
	}

	return rt.get(redisKey)
}

func (rt *redisTx) Insert(bucket kv.Bucket, key, value []byte) error {
	_, err := rt.Get(bucket, key)
	switch {
	case err == nil:
		return kv.ErrKeyExists
	case !errors.Is(err, kv.ErrKeyNotFound):
		return err
	}

	return rt.Put(bucket, key, value)
}

func (rt *redisTx) Put(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	if value == nil {
		value = []byte{}
	}

	rt.stage(rt.engine.redisKey(bucket, key), bytes.Clone(value))

	return nil
}

func (rt *redisTx) Delete(bucket kv.Bucket, key []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	rt.stage(rt.engine.redisKey(bucket, key), nil)

	return nil
}

func (rt *redisTx) stage(redisKey string, value []byte) {
	if _, ok := rt.staged[redisKey]; !ok {
		rt.order = append(rt.order, redisKey)
	}

	rt.staged[redisKey] = value
}

// Compile-time check.
var _ kv.Engine = (*RedisEngine)(nil)
