package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/paste-go/internal/kv"
)

// PostgresSchema holds every bucket in one table keyed by (bucket, key).
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	bucket TEXT NOT NULL,
	key BYTEA NOT NULL,
	value BYTEA NOT NULL,
	PRIMARY KEY (bucket, key)
)
`

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// PostgresEngine is a PostgreSQL implementation of kv.Engine.
// Update runs at SERIALIZABLE isolation.
type PostgresEngine struct {
	pool *pgxpool.Pool
}

// NewPostgresEngine creates a new PostgreSQL-backed engine.
func NewPostgresEngine(pool *pgxpool.Pool) *PostgresEngine {
	return &PostgresEngine{pool: pool}
}

// EnsureSchema creates the kv_entries table if it does not exist.
func (p *PostgresEngine) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("postgres: applying schema: %w", err)
	}

	return nil
}

func (p *PostgresEngine) View(ctx context.Context, fn func(kv.Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	return pgx.BeginTxFunc(ctx, p.pool, opts, func(tx pgx.Tx) error {
		return fn(&postgresTx{ctx: ctx, tx: tx})
	})
}

func (p *PostgresEngine) Update(ctx context.Context, fn func(kv.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	err := pgx.BeginTxFunc(ctx, p.pool, opts, func(tx pgx.Tx) error {
		return fn(&postgresTx{ctx: ctx, tx: tx})
	})

	return translatePostgresErr(err)
}

func (p *PostgresEngine) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close is a no-op; the pool is managed by the container.
func (p *PostgresEngine) Close() error {
	return nil
}

func translatePostgresErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %w", kv.ErrConflict, err)
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w: %w", kv.ErrKeyExists, err)
	default:
		return err
	}
}

type postgresTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *postgresTx) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	if !kv.ValidBucket(bucket) {
		return nil, kv.ErrUnknownBucket
	}

	query := `SELECT value FROM kv_entries WHERE bucket = $1 AND key = $2`

	var value []byte

	err := t.tx.QueryRow(t.ctx, query, string(bucket), key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kv.ErrKeyNotFound
		}

		return nil, err
	}

	return value, nil
}

func (t *postgresTx) Insert(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	query := `
		INSERT INTO kv_entries (bucket, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (bucket, key) DO NOTHING
	`

	tag, err := t.tx.Exec(t.ctx, query, string(bucket), key, nonNil(value))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return kv.ErrKeyExists
	}

	return nil
}

func (t *postgresTx) Put(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	query := `
		INSERT INTO kv_entries (bucket, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := t.tx.Exec(t.ctx, query, string(bucket), key, nonNil(value))

	return err
}

func (t *postgresTx) Delete(bucket kv.Bucket, key []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	_, err := t.tx.Exec(t.ctx, `DELETE FROM kv_entries WHERE bucket = $1 AND key = $2`, string(bucket), key)

	return err
}

// nonNil keeps drivers from binding an empty value as NULL.
func nonNil(value []byte) []byte {
	if value == nil {
		return []byte{}
	}

	return value
}

// Compile-time check.
var _ kv.Engine = (*PostgresEngine)(nil)
