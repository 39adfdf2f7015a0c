package store

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/serroba/paste-go/internal/kv"
)

// MemoryEngine is an in-memory implementation of kv.Engine.
// Update holds the write lock for the whole transaction, so transactions
// are serialized and never conflict.
type MemoryEngine struct {
	mu      sync.RWMutex
	buckets map[kv.Bucket]map[string][]byte
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	buckets := make(map[kv.Bucket]map[string][]byte, len(kv.Buckets))
	for _, b := range kv.Buckets {
		buckets[b] = make(map[string][]byte)
	}

	return &MemoryEngine{buckets: buckets}
}

func (m *MemoryEngine) View(_ context.Context, fn func(kv.Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(memoryReader{buckets: m.buckets})
}

func (m *MemoryEngine) Update(_ context.Context, fn func(kv.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		memoryReader: memoryReader{buckets: m.buckets},
		staged:       make(map[kv.Bucket]map[string][]byte),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for bucket, writes := range tx.staged {
		for key, value := range writes {
			if value == nil {
				delete(m.buckets[bucket], key)

				continue
			}

			m.buckets[bucket][key] = value
		}
	}

	return nil
}

func (m *MemoryEngine) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryEngine) Close() error {
	return nil
}

// Shutdown lets the container dispose of the engine.
func (m *MemoryEngine) Shutdown() error {
	return m.Close()
}

type memoryReader struct {
	buckets map[kv.Bucket]map[string][]byte
}

func (r memoryReader) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	entries, ok := r.buckets[bucket]
	if !ok {
		return nil, kv.ErrUnknownBucket
	}

	value, ok := entries[string(key)]
	if !ok {
		return nil, kv.ErrKeyNotFound
	}

	return bytes.Clone(value), nil
}

// memoryTx stages writes on top of the committed buckets. A nil staged
// value marks a deletion.
type memoryTx struct {
	memoryReader
	staged map[kv.Bucket]map[string][]byte
}

func (tx *memoryTx) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	if !kv.ValidBucket(bucket) {
		return nil, kv.ErrUnknownBucket
	}

	if value, ok := tx.staged[bucket][string(key)]; ok {
		if value == nil {
			return nil, kv.ErrKeyNotFound
		}

		return bytes.Clone(value), nil
	}

	return tx.memoryReader.Get(bucket, key)
}

func (tx *memoryTx) Insert(bucket kv.Bucket, key, value []byte) error {
	_, err := tx.Get(bucket, key)
	switch {
	case err == nil:
		return kv.ErrKeyExists
	case !errors.Is(err, kv.ErrKeyNotFound):
		return err
	}

	return tx.Put(bucket, key, value)
}

func (tx *memoryTx) Put(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	if value == nil {
		value = []byte{}
	}

	tx.stage(bucket)[string(key)] = bytes.Clone(value)

	return nil
}

func (tx *memoryTx) Delete(bucket kv.Bucket, key []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	tx.stage(bucket)[string(key)] = nil

	return nil
}

func (tx *memoryTx) stage(bucket kv.Bucket) map[string][]byte {
	writes, ok := tx.staged[bucket]
	if !ok {
		writes = make(map[string][]byte)
		tx.staged[bucket] = writes
	}

	return writes
}

// Compile-time check.
var _ kv.Engine = (*MemoryEngine)(nil)
