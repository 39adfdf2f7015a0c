package paste

import (
	"fmt"
	"time"

	"github.com/serroba/paste-go/internal/codec"
)

const envelopeVersion = 1

// envelope is the stored form of a Record.
type envelope struct {
	V       int    `cbor:"v"`
	ID      []byte `cbor:"id"`
	Hash    []byte `cbor:"hash"`
	Short   string `cbor:"short"`
	Alias   string `cbor:"alias,omitempty"`
	Destroy *int64 `cbor:"destroy,omitempty"` // unix nanoseconds
	Created int64  `cbor:"created"`           // unix nanoseconds
	Kind    Kind   `cbor:"kind"`
	Text    string `cbor:"text,omitempty"`
	Data    []byte `cbor:"data,omitempty"`
}

func encodeRecord(rec *Record) ([]byte, error) {
	env := envelope{
		V:       envelopeVersion,
		ID:      rec.ID.Bytes(),
		Hash:    rec.ContentHash[:],
		Short:   string(rec.ShortCode),
		Alias:   rec.CustomAlias,
		Created: rec.CreatedAt.UnixNano(),
	}

	if rec.DestroyTime != nil {
		destroy := rec.DestroyTime.UnixNano()
		env.Destroy = &destroy
	}

	switch p := rec.Payload.(type) {
	case Text:
		env.Kind, env.Text = KindText, p.Content
	case ShortLink:
		env.Kind, env.Text = KindLink, p.Target
	case Binary:
		env.Kind, env.Data = KindBinary, p.Data
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPayload, rec.Payload)
	}

	data, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("paste: encoding record %s: %w", rec.ID, err)
	}

	return codec.Pack(data), nil
}

func decodeRecord(packed []byte) (*Record, error) {
	data, err := codec.Unpack(packed)
	if err != nil {
		return nil, fmt.Errorf("paste: decoding record: %w", err)
	}

	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("paste: decoding record: %w", err)
	}

	if env.V != envelopeVersion {
		return nil, fmt.Errorf("paste: unsupported record version %d", env.V)
	}

	id, err := idFromBytes(env.ID)
	if err != nil {
		return nil, err
	}

	var hash Hash
	if len(env.Hash) != len(hash) {
		return nil, fmt.Errorf("paste: record %s has a %d-byte hash", id, len(env.Hash))
	}

	copy(hash[:], env.Hash)

	rec := &Record{
		ID:          id,
		ContentHash: hash,
		ShortCode:   Code(env.Short),
		CustomAlias: env.Alias,
		CreatedAt:   time.Unix(0, env.Created).UTC(),
	}

	if env.Destroy != nil {
		destroy := time.Unix(0, *env.Destroy).UTC()
		rec.DestroyTime = &destroy
	}

	switch env.Kind {
	case KindText:
		rec.Payload = Text{Content: env.Text}
	case KindLink:
		rec.Payload = ShortLink{Target: env.Text}
	case KindBinary:
		rec.Payload = Binary{Data: env.Data}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayload, env.Kind)
	}

	return rec, nil
}
