// Command consumer drains the paste analytics streams.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/paste-go/internal/container"
	"github.com/serroba/paste-go/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	opts := optionsFromEnv()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	defer func() { _ = logger.Sync() }()

	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("analytics consumer failed to start", zap.Error(err))
	}

	logger.Info("consuming paste events",
		zap.String("redis", opts.RedisAddr),
		zap.String("group", container.ConsumerGroupName),
		zap.Strings("topics", group.Topics()),
	)

	<-ctx.Done()

	logger.Info("analytics consumer stopping", zap.Int("topics", len(group.Topics())))

	if err := injector.Shutdown(); err != nil {
		logger.Error("analytics consumer shutdown failed", zap.Error(err))

		return
	}

	logger.Info("analytics consumer stopped")
}

// optionsFromEnv reads the server options the consumer needs, under the
// same SERVICE_* names humacli uses.
func optionsFromEnv() *container.Options {
	return &container.Options{
		RedisAddr: envOr("SERVICE_REDIS_ADDR", envOr("REDIS_ADDR", "localhost:6379")),
		LogFormat: envOr("SERVICE_LOG_FORMAT", "console"),
		LogLevel:  envOr("SERVICE_LOG_LEVEL", "info"),
		Events:    true,
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}
