// Package kv defines the atomic multi-map transaction capability the record
// store is built on. Engines live in internal/store.
package kv

import (
	"context"
	"errors"
)

// Bucket names one key space inside an engine.
type Bucket string

const (
	// Records maps a 16-byte record id to the encoded record.
	Records Bucket = "records"
	// ShortCodes maps a short code to a record id.
	ShortCodes Bucket = "short_codes"
	// Aliases maps a custom alias to a record id.
	Aliases Bucket = "aliases"
)

// Buckets lists every key space an engine must provide.
var Buckets = []Bucket{Records, ShortCodes, Aliases}

var (
	// ErrKeyNotFound is returned by Get when the key is absent.
	ErrKeyNotFound = errors.New("kv: key not found")

	// ErrKeyExists is returned by Insert when the key is already present.
	ErrKeyExists = errors.New("kv: key exists")

	// ErrConflict is returned by Update when a concurrent transaction
	// invalidated this one and it was aborted.
	ErrConflict = errors.New("kv: transaction conflict")

	// ErrUnknownBucket is returned for a bucket the engine does not know.
	ErrUnknownBucket = errors.New("kv: unknown bucket")
)

// Reader reads from a consistent view of the engine.
type Reader interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(bucket Bucket, key []byte) ([]byte, error)
}

// Tx is a read-write transaction. Writes are staged and become visible to
// other transactions only when the enclosing Update returns nil.
type Tx interface {
	Reader

	// Insert stores value under key only if the key is absent.
	// It returns ErrKeyExists otherwise.
	Insert(bucket Bucket, key, value []byte) error

	// Put stores value under key, replacing any previous value.
	Put(bucket Bucket, key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(bucket Bucket, key []byte) error
}

// Engine is an embedded or remote ordered key-value store with
// all-or-nothing transactions that span every bucket.
type Engine interface {
	// View runs fn against a read-only view.
	View(ctx context.Context, fn func(Reader) error) error

	// Update runs fn inside a read-write transaction. If fn returns an
	// error nothing is written and that error is returned. If the engine
	// cannot commit, the returned error wraps ErrConflict or the engine's
	// own failure.
	Update(ctx context.Context, fn func(Tx) error) error

	// Ping checks that the engine is reachable.
	Ping(ctx context.Context) error

	// Close releases the engine's resources.
	Close() error
}

// ValidBucket reports whether b is one of Buckets.
func ValidBucket(b Bucket) bool {
	for _, known := range Buckets {
		if b == known {
			return true
		}
	}

	return false
}
