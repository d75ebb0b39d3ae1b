package recalc

import (
	"context"

	"github.com/cozinhalabs/radar/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("recalc",
	fx.Provide(NewClient),
	fx.Provide(NewLocker),
)

// NewClient connects to redis when configured. Without REDIS_ADDR the client
// is nil and the locker degrades to unguarded recalculation.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, recalculation lock disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	return client
}
