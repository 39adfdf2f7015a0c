package store

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/serroba/paste-go/internal/kv"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteSchema is executed on every new connection. Each bucket is a
// WITHOUT ROWID table, so rows are stored in key order in the primary
// B-tree.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS records (
  key BLOB PRIMARY KEY NOT NULL,
  value BLOB NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS short_codes (
  key BLOB PRIMARY KEY NOT NULL,
  value BLOB NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS aliases (
  key BLOB PRIMARY KEY NOT NULL,
  value BLOB NOT NULL
) WITHOUT ROWID;
`

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// SQLiteConfig configures NewSQLiteEngine.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" forces a single connection,
	// since every in-memory connection is a separate database.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	Logger *zap.Logger
}

// SQLiteEngine is an embedded kv.Engine on SQLite.
type SQLiteEngine struct {
	pool   *sqlitex.Pool
	path   string
	logger *zap.Logger
}

// NewSQLiteEngine opens (creating if needed) the database at cfg.Path.
func NewSQLiteEngine(cfg SQLiteConfig) (*SQLiteEngine, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	if cfg.Path == ":memory:" {
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite engine opened",
		zap.String("path", cfg.Path),
		zap.Int("poolSize", poolSize),
	)

	return &SQLiteEngine{pool: pool, path: cfg.Path, logger: logger}, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	for _, pragma := range sqlitePragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, SQLiteSchema, nil); err != nil {
		return fmt.Errorf("sqlite: applying schema: %w", err)
	}

	return nil
}

func (e *SQLiteEngine) View(ctx context.Context, fn func(kv.Reader) error) (err error) {
	conn, err := e.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: take: %w", err)
	}
	defer e.pool.Put(conn)

	endTransaction := sqlitex.Transaction(conn)
	defer endTransaction(&err)

	return fn(&sqliteTx{conn: conn})
}

func (e *SQLiteEngine) Update(ctx context.Context, fn func(kv.Tx) error) error {
	return translateSQLiteErr(e.update(ctx, fn))
}

func (e *SQLiteEngine) update(ctx context.Context, fn func(kv.Tx) error) (err error) {
	conn, err := e.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: take: %w", err)
	}
	defer e.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer endTransaction(&err)

	return fn(&sqliteTx{conn: conn})
}

func (e *SQLiteEngine) Ping(ctx context.Context) error {
	conn, err := e.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: take: %w", err)
	}
	defer e.pool.Put(conn)

	return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
}

func (e *SQLiteEngine) Close() error {
	if err := e.pool.Close(); err != nil {
		e.logger.Error("sqlite engine close failed", zap.String("path", e.path), zap.Error(err))

		return fmt.Errorf("sqlite: closing %s: %w", e.path, err)
	}

	e.logger.Info("sqlite engine closed", zap.String("path", e.path))

	return nil
}

// Shutdown lets the container dispose of the engine.
func (e *SQLiteEngine) Shutdown() error {
	return e.Close()
}

// translateSQLiteErr maps lock contention to kv.ErrConflict.
func translateSQLiteErr(err error) error {
	if err == nil {
		return nil
	}

	switch sqlite.ErrCode(err).ToPrimary() {
	case sqlite.ResultBusy, sqlite.ResultLocked:
		return fmt.Errorf("%w: %w", kv.ErrConflict, err)
	default:
		return err
	}
}

type sqliteTx struct {
	conn *sqlite.Conn
}

func (tx *sqliteTx) Get(bucket kv.Bucket, key []byte) ([]byte, error) {
	if !kv.ValidBucket(bucket) {
		return nil, kv.ErrUnknownBucket
	}

	var (
		value []byte
		found bool
	)

	err := sqlitex.Execute(tx.conn, "SELECT value FROM "+string(bucket)+" WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			found = true

			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: get from %s: %w", bucket, err)
	}

	if !found {
		return nil, kv.ErrKeyNotFound
	}

	return value, nil
}

func (tx *sqliteTx) Insert(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	query := "INSERT INTO " + string(bucket) + " (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING"
	if err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{Args: []any{key, nonNil(value)}}); err != nil {
		return fmt.Errorf("sqlite: insert into %s: %w", bucket, err)
	}

	if tx.conn.Changes() == 0 {
		return kv.ErrKeyExists
	}

	return nil
}

func (tx *sqliteTx) Put(bucket kv.Bucket, key, value []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	query := "INSERT INTO " + string(bucket) + " (key, value) VALUES (?, ?)" +
		" ON CONFLICT (key) DO UPDATE SET value = excluded.value"
	if err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{Args: []any{key, nonNil(value)}}); err != nil {
		return fmt.Errorf("sqlite: put into %s: %w", bucket, err)
	}

	return nil
}

func (tx *sqliteTx) Delete(bucket kv.Bucket, key []byte) error {
	if !kv.ValidBucket(bucket) {
		return kv.ErrUnknownBucket
	}

	if err := sqlitex.Execute(tx.conn, "DELETE FROM "+string(bucket)+" WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
	}); err != nil {
		return fmt.Errorf("sqlite: delete from %s: %w", bucket, err)
	}

	return nil
}

// Compile-time check.
var _ kv.Engine = (*SQLiteEngine)(nil)
