// Package paste is the content-addressed record store. A record is
// reachable by its id, by the short code derived from its content hash,
// and by an optional custom alias; the three indices are kept consistent
// by committing them in a single kv transaction.
package paste

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is the immutable primary key of a record.
type ID uuid.UUID

// NewID returns a random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("paste: invalid id %q: %w", s, err)
	}

	return ID(u), nil
}

func idFromBytes(b []byte) (ID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ID{}, fmt.Errorf("paste: invalid id bytes: %w", err)
	}

	return ID(u), nil
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the 16 raw bytes of the id.
func (id ID) Bytes() []byte {
	return id[:]
}

// Kind names a Payload variant.
type Kind string

const (
	KindText   Kind = "text"
	KindLink   Kind = "link"
	KindBinary Kind = "binary"
)

// Payload is one of Text, ShortLink or Binary.
type Payload interface {
	Kind() Kind
	// Bytes is the content that is hashed.
	Bytes() []byte
	isPayload()
}

// Text is UTF-8 content stored as uploaded.
type Text struct {
	Content string
}

// ShortLink is a redirect target.
type ShortLink struct {
	Target string
}

// Binary is arbitrary bytes.
type Binary struct {
	Data []byte
}

func (Text) Kind() Kind      { return KindText }
func (ShortLink) Kind() Kind { return KindLink }
func (Binary) Kind() Kind    { return KindBinary }

func (p Text) Bytes() []byte      { return []byte(p.Content) }
func (p ShortLink) Bytes() []byte { return []byte(p.Target) }
func (p Binary) Bytes() []byte    { return p.Data }

func (Text) isPayload()      {}
func (ShortLink) isPayload() {}
func (Binary) isPayload()    {}

// Record is a stored paste.
type Record struct {
	ID          ID
	ContentHash Hash
	ShortCode   Code
	CustomAlias string // empty when absent
	DestroyTime *time.Time
	CreatedAt   time.Time
	Payload     Payload
}

// Size is the payload length in bytes.
func (r *Record) Size() int {
	return len(r.Payload.Bytes())
}
