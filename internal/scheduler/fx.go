package scheduler

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(New),
	fx.Invoke(RegisterLifecycle),
)

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func NewLocker(client *redis.Client, clk clock.Clock, log *zap.Logger) Locker {
	if client == nil {
		log.Info("redis not configured, scheduler uses an in-process lock")
		return NewLocalLocker(clk)
	}
	return NewRedisLocker(client)
}

func RegisterLifecycle(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return sched.Start()
		},
		OnStop: func(ctx context.Context) error {
			return sched.Stop(ctx)
		},
	})
}
