package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/paste-go/internal/kv"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/store"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// RedisConn owns the shared Redis client and closes it on shutdown.
type RedisConn struct {
	Client *redis.Client
}

func (c *RedisConn) Shutdown() error {
	return c.Client.Close()
}

// PostgresConn owns the pgx pool and closes it on shutdown.
type PostgresConn struct {
	Pool *pgxpool.Pool
}

func (c *PostgresConn) Shutdown() error {
	c.Pool.Close()

	return nil
}

// RedisPackage provides a lazily connected *RedisConn.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisConn{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides a *PostgresConn whose pool has answered a ping.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresConn, error) {
		opts := do.MustInvoke[*Options](i)

		cfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: parse config: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: create pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("postgres: ping: %w", err)
		}

		return &PostgresConn{Pool: pool}, nil
	})
}

// EnginePackage provides the kv.Engine selected by Options.Engine.
func EnginePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (kv.Engine, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		engine, err := newEngine(i, opts, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("storage engine ready", zap.String("engine", opts.Engine))

		return engine, nil
	})
}

func newEngine(i *do.Injector, opts *Options, logger *zap.Logger) (kv.Engine, error) {
	switch opts.Engine {
	case EngineMemory:
		return store.NewMemoryEngine(), nil
	case EngineSQLite:
		return store.NewSQLiteEngine(store.SQLiteConfig{Path: opts.DBPath, Logger: logger})
	case EngineRedis:
		conn, err := do.Invoke[*RedisConn](i)
		if err != nil {
			return nil, err
		}

		return store.NewRedisEngine(conn.Client), nil
	case EnginePostgres:
		conn, err := do.Invoke[*PostgresConn](i)
		if err != nil {
			return nil, err
		}

		engine := store.NewPostgresEngine(conn.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		if err := engine.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return engine, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", opts.Engine)
	}
}

// StorePackage provides the paste.Repository over the configured engine.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (paste.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		engine, err := do.Invoke[kv.Engine](i)
		if err != nil {
			return nil, err
		}

		return paste.NewStore(engine,
			paste.WithLogger(do.MustInvoke[*zap.Logger](i).Named("store")),
			paste.WithCodeLength(opts.CodeLength),
		), nil
	})
}
