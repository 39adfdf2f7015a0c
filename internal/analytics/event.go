package analytics

import "time"

const (
	TopicPasteCreated  = "paste.created"
	TopicPasteAccessed = "paste.accessed"
	TopicPasteExpired  = "paste.expired"
	TopicPasteDeleted  = "paste.deleted"
)

// PasteCreatedEvent is emitted when a new paste is stored.
type PasteCreatedEvent struct {
	ID        string    `cbor:"id"`
	ShortCode string    `cbor:"short"`
	Alias     string    `cbor:"alias,omitempty"`
	Kind      string    `cbor:"kind"`
	Digest    string    `cbor:"digest"`
	Size      int       `cbor:"size"`
	CreatedAt time.Time `cbor:"createdAt"`
	ClientIP  string    `cbor:"clientIp"`
	UserAgent string    `cbor:"userAgent"`
}

// PasteAccessedEvent is emitted when a paste is viewed.
type PasteAccessedEvent struct {
	Key        string    `cbor:"key"`
	ID         string    `cbor:"id"`
	Kind       string    `cbor:"kind"`
	AccessedAt time.Time `cbor:"accessedAt"`
	ClientIP   string    `cbor:"clientIp"`
	UserAgent  string    `cbor:"userAgent"`
	Referrer   string    `cbor:"referrer,omitempty"`
}

// PasteExpiredEvent is emitted when a read finds a paste past its destroy time.
type PasteExpiredEvent struct {
	Key       string    `cbor:"key"`
	ExpiredAt time.Time `cbor:"expiredAt"`
}

// PasteDeletedEvent is emitted when a paste is deleted on request.
type PasteDeletedEvent struct {
	ID        string    `cbor:"id"`
	DeletedAt time.Time `cbor:"deletedAt"`
	ClientIP  string    `cbor:"clientIp"`
}
