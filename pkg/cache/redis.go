package cache

import (
	"context"
	"strings"

	"github.com/assocdesk/memberportal/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewClient returns nil when no address is configured; consumers treat a
// nil client as "no cache" and fall through to the database.
func NewClient(cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
}

func registerHooks(lc fx.Lifecycle, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}

var Module = fx.Module("cache",
	fx.Provide(NewClient),
	fx.Invoke(registerHooks),
)
