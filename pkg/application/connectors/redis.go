package connectors

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"estymator/pkg/logx"
)

type Redis struct {
	value              *redis.Client
	URL                string
	PoolSize           int
	MinIdleConnections int
	MaxIdleConnections int
	init               sync.Once
}

func (r *Redis) Client(ctx context.Context) *redis.Client {
	r.init.Do(func() {
		opts := lo.Must(redis.ParseURL(r.URL))

		if r.PoolSize > 0 {
			opts.PoolSize = r.PoolSize
		}
		opts.MinIdleConns = r.MinIdleConnections
		opts.MaxIdleConns = r.MaxIdleConnections

		r.value = redis.NewClient(opts)

		logger(ctx).Info(
			"redis connected",
			slog.String("address", opts.Addr),
			slog.Int("database", opts.DB),
		)
	})

	return r.value
}

func (r *Redis) Close(ctx context.Context) {
	if err := r.value.Close(); err != nil {
		logger(ctx).Error("redisClient.Close", logx.Error(err))
	}

	logger(ctx).Info("redis disconnected")
}
