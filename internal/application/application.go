package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"estymator/internal/config"
	"estymator/internal/domain/service/valuation"
	"estymator/internal/infrastructure/cache"
	"estymator/internal/infrastructure/registry"
	"estymator/internal/server"
	"estymator/internal/worker"
	"estymator/pkg/application/connectors"
	"estymator/pkg/application/modules"
	"estymator/pkg/logx"
	"estymator/pkg/middlewarex"
)

// Run собирает сервис: конфиг → реестр моделей → кеш → HTTP. Модули живут в
// одном errgroup, падение любого из них гасит остальные.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	modelRegistry := registry.Load(ctx, cfg.Models)

	var redisClient *redis.Client

	if cfg.Redis.URL != "" {
		redisConnector := &connectors.Redis{
			URL:                cfg.Redis.URL,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		defer redisConnector.Close(ctx)

		redisClient = redisConnector.Client(ctx)
	}

	predictionCache := cache.New(ctx, redisClient, cfg.Redis, cfg.Cache.TTL)

	valuationService := valuation.NewService(modelRegistry).
		WithStageTimeout(cfg.Models.StageTimeout)

	srv := server.NewServer(
		server.NewValuationServer(valuationService, predictionCache, modelRegistry),
		server.NewSystemServer(predictionCache, modelRegistry),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.Recovery,
	)
	srv.RegisterRoutes(router)

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}.Run(ctx, g, &http.Server{ //nolint:exhaustruct
		Addr:              cfg.Server.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.Server.MetricsListenAddress,
	}.Run(ctx, g)

	statsReporter := worker.NewStatsReporter(predictionCache).
		WithInterval(cfg.Cache.StatsInterval)

	g.Go(func() error {
		return statsReporter.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}
