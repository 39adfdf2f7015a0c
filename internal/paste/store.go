package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/paste-go/internal/kv"
	"go.uber.org/zap"
)

// Repository is the record store as seen by the HTTP layer.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Record, error)
	Read(ctx context.Context, key string) (*Record, error)
	Update(ctx context.Context, id ID, payload Payload) (*Record, error)
	Delete(ctx context.Context, id ID) error
}

// CreateInput describes a new record.
type CreateInput struct {
	Payload     Payload
	CustomAlias string
	DestroyTime *time.Time
}

// Store implements Repository over a kv.Engine. It holds no locks of its
// own; atomicity comes from the engine's transactions.
type Store struct {
	engine     kv.Engine
	logger     *zap.Logger
	now        func() time.Time
	address    AddressFunc
	codeLength int
	newID      func() ID
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithAddressFunc(fn AddressFunc) Option {
	return func(s *Store) { s.address = fn }
}

// WithCodeLength sets the short code length, clamped to 1..MaxCodeLength.
func WithCodeLength(n int) Option {
	return func(s *Store) { s.codeLength = ClampCodeLength(n) }
}

func WithIDGenerator(fn func() ID) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a Store backed by engine.
func NewStore(engine kv.Engine, opts ...Option) *Store {
	s := &Store{
		engine:     engine,
		logger:     zap.NewNop(),
		now:        time.Now,
		address:    Derive,
		codeLength: DefaultCodeLength,
		newID:      NewID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores a new record. It returns a *ConflictError if the id,
// short code or alias already belongs to a live record, and
// ErrCommitFailed if the write could not be committed, for example
// because a concurrent create took one of the keys first.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if in.Payload == nil {
		return nil, ErrUnknownPayload
	}

	if _, err := ParseID(in.CustomAlias); err == nil {
		return nil, ErrInvalidAlias
	}

	hash, code := s.address(in.Payload.Bytes(), s.codeLength)

	rec := &Record{
		ID:          s.newID(),
		ContentHash: hash,
		ShortCode:   code,
		CustomAlias: in.CustomAlias,
		DestroyTime: normalizeTime(in.DestroyTime),
		CreatedAt:   s.now().UTC().Round(0),
		Payload:     in.Payload,
	}

	if err := s.precheck(ctx, rec); err != nil {
		return nil, err
	}

	value, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	err = s.engine.Update(ctx, func(tx kv.Tx) error {
		if err := ensureAbsent(tx, kv.Aliases, []byte(rec.ShortCode)); err != nil {
			return err
		}

		if rec.CustomAlias != "" && rec.CustomAlias != string(rec.ShortCode) {
			if err := ensureAbsent(tx, kv.ShortCodes, []byte(rec.CustomAlias)); err != nil {
				return err
			}
		}

		if err := tx.Insert(kv.Records, rec.ID.Bytes(), value); err != nil {
			return err
		}

		if err := tx.Insert(kv.ShortCodes, []byte(rec.ShortCode), rec.ID.Bytes()); err != nil {
			return err
		}

		if rec.CustomAlias == "" {
			return nil
		}

		return tx.Insert(kv.Aliases, []byte(rec.CustomAlias), rec.ID.Bytes())
	})
	if err != nil {
		s.logger.Warn("create commit failed",
			zap.String("id", rec.ID.String()),
			zap.String("short", string(rec.ShortCode)),
			zap.Error(err),
		)

		return nil, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	s.logger.Debug("paste created",
		zap.String("id", rec.ID.String()),
		zap.String("short", string(rec.ShortCode)),
		zap.String("kind", string(rec.Payload.Kind())),
	)

	return rec, nil
}

// ensureAbsent fails with kv.ErrKeyExists when key is present in bucket.
func ensureAbsent(r kv.Reader, bucket kv.Bucket, key []byte) error {
	_, err := r.Get(bucket, key)
	switch {
	case err == nil:
		return fmt.Errorf("%s %q: %w", bucket, key, kv.ErrKeyExists)
	case errors.Is(err, kv.ErrKeyNotFound):
		return nil
	default:
		return err
	}
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC().Round(0)

	return &u
}

// precheck looks for a live record holding rec's id, short code or
// alias, in that order. Short codes and aliases share one lookup space,
// so each is also checked against the other's bucket. Expired holders
// are removed instead.
func (s *Store) precheck(ctx context.Context, rec *Record) error {
	type probe struct {
		ns     Namespace
		bucket kv.Bucket
		key    []byte
	}

	probes := []probe{
		{ns: NamespaceID, bucket: kv.Records, key: rec.ID.Bytes()},
		{ns: NamespaceShortCode, bucket: kv.ShortCodes, key: []byte(rec.ShortCode)},
		{ns: NamespaceShortCode, bucket: kv.Aliases, key: []byte(rec.ShortCode)},
	}

	if rec.CustomAlias != "" {
		probes = append(probes,
			probe{ns: NamespaceAlias, bucket: kv.Aliases, key: []byte(rec.CustomAlias)},
			probe{ns: NamespaceAlias, bucket: kv.ShortCodes, key: []byte(rec.CustomAlias)},
		)
	}

	var (
		conflict *ConflictError
		expired  []*Record
	)

	now := s.now()

	err := s.engine.View(ctx, func(r kv.Reader) error {
		for _, p := range probes {
			existing, err := s.probe(r, p.bucket, p.key)
			if err != nil {
				return err
			}

			if existing == nil {
				continue
			}

			if Expired(existing, now) {
				expired = append(expired, existing)

				continue
			}

			conflict = &ConflictError{Namespace: p.ns, Existing: existing}

			return nil
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("paste: create precheck: %w", err)
	}

	if conflict != nil {
		return conflict
	}

	for _, old := range expired {
		s.expire(ctx, old)
	}

	return nil
}

// probe returns the record holding key in bucket, or nil.
func (s *Store) probe(r kv.Reader, bucket kv.Bucket, key []byte) (*Record, error) {
	if bucket == kv.Records {
		rec, err := loadRecord(r, key)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}

		return rec, err
	}

	value, err := r.Get(bucket, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, err
	}

	rec, err := loadRecord(r, value)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("index entry points at a missing record",
			zap.String("bucket", string(bucket)),
			zap.ByteString("key", key),
		)

		return nil, nil
	}

	return rec, err
}

// Read resolves key as a short code, alias or id and returns the record.
// A record whose destroy time has passed is removed and ErrExpired is
// returned.
func (s *Store) Read(ctx context.Context, key string) (*Record, error) {
	var rec *Record

	err := s.engine.View(ctx, func(r kv.Reader) error {
		_, id, err := Resolve(r, key)
		if err != nil {
			return err
		}

		rec, err = loadRecord(r, id.Bytes())

		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("paste: reading %q: %w", key, err)
	}

	if Expired(rec, s.now()) {
		s.expire(ctx, rec)

		return nil, ErrExpired
	}

	return rec, nil
}

// Update replaces the payload of record id and recomputes its content
// hash. Short code, alias, destroy time and creation time are kept.
func (s *Store) Update(ctx context.Context, id ID, payload Payload) (*Record, error) {
	if payload == nil {
		return nil, ErrUnknownPayload
	}

	hash, _ := s.address(payload.Bytes(), s.codeLength)

	var updated *Record

	err := s.engine.Update(ctx, func(tx kv.Tx) error {
		rec, err := loadRecord(tx, id.Bytes())
		if err != nil {
			return err
		}

		rec.Payload = payload
		rec.ContentHash = hash

		value, err := encodeRecord(rec)
		if err != nil {
			return err
		}

		if err := tx.Put(kv.Records, id.Bytes(), value); err != nil {
			return err
		}

		updated = rec

		return nil
	})

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, ErrUnknownPayload):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
}

// Delete removes record id together with its short code and alias
// entries. Any failure, including an engine error, is reported as
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, id ID) error {
	err := s.engine.Update(ctx, func(tx kv.Tx) error {
		rec, err := loadRecord(tx, id.Bytes())
		if err != nil {
			return err
		}

		return removeRecord(tx, rec)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	s.logger.Warn("delete failed", zap.String("id", id.String()), zap.Error(err))

	return fmt.Errorf("%w: %w", ErrNotFound, err)
}

// expire removes rec as long as the stored copy is still expired.
// Failures are logged and otherwise ignored.
func (s *Store) expire(ctx context.Context, rec *Record) {
	now := s.now()

	err := s.engine.Update(ctx, func(tx kv.Tx) error {
		current, err := loadRecord(tx, rec.ID.Bytes())
		if errors.Is(err, ErrNotFound) {
			return nil
		}

		if err != nil {
			return err
		}

		if !Expired(current, now) {
			return nil
		}

		return removeRecord(tx, current)
	})
	if err != nil {
		s.logger.Warn("expired paste removal failed",
			zap.String("id", rec.ID.String()),
			zap.Error(err),
		)

		return
	}

	s.logger.Debug("expired paste removed", zap.String("id", rec.ID.String()))
}

func loadRecord(r kv.Reader, id []byte) (*Record, error) {
	value, err := r.Get(kv.Records, id)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return decodeRecord(value)
}

func removeRecord(tx kv.Tx, rec *Record) error {
	if err := tx.Delete(kv.Records, rec.ID.Bytes()); err != nil {
		return err
	}

	if err := tx.Delete(kv.ShortCodes, []byte(rec.ShortCode)); err != nil {
		return err
	}

	if rec.CustomAlias == "" {
		return nil
	}

	return tx.Delete(kv.Aliases, []byte(rec.CustomAlias))
}

// Compile-time check.
var _ Repository = (*Store)(nil)
