package server

import (
	"fmt"
	"net/http"

	"estymator/internal/domain"
	"estymator/pkg/errcodes"
	"estymator/pkg/httpx/reply"
	"estymator/pkg/rest"
)

const statusHealthy = "healthy"

type SystemServer struct {
	cache    predictionCache
	registry modelRegistry
}

func NewSystemServer(cache predictionCache, registry modelRegistry) SystemServer {
	return SystemServer{
		cache:    cache,
		registry: registry,
	}
}

func (s SystemServer) getRoot(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	stats := s.cache.Stats()

	reply.JSON(ctx, w, http.StatusOK, rest.RootResponse{
		Message:      "EstymatorAI property valuation API",
		Status:       "ok",
		ModelVersion: s.registry.Version(),
		ModelsLoaded: s.registry.Loaded(),
		CacheHitRate: stats.HitRate,
	})

	return nil
}

func (s SystemServer) getHealth(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	stats := s.cache.Stats()

	cacheHealth := rest.CacheHealth{
		Status:    statusHealthy,
		Connected: true,
		Backend:   stats.Backend,
	}

	status := statusHealthy

	if err := s.cache.Ping(ctx); err != nil {
		cacheHealth.Status = "unavailable"
		cacheHealth.Connected = false
		status = "degraded"
	}

	reply.JSON(ctx, w, http.StatusOK, rest.HealthResponse{
		Status: status,
		Cache:  cacheHealth,
		Models: s.registry.Loaded(),
	})

	return nil
}

func (s SystemServer) getCacheStats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	reply.JSON(ctx, w, http.StatusOK, newRESTCacheStats(s.cache.Stats(), s.registry.Version()))

	return nil
}

func (s SystemServer) postCacheInvalidate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	// Версия не указана — инвалидация активной.
	version := r.URL.Query().Get("model_version")
	if version == "" {
		version = s.registry.Version()
	}

	deleted, err := s.cache.InvalidateVersion(ctx, version)
	if err != nil {
		return domain.WrapError(
			fmt.Errorf("cache.InvalidateVersion: %w", err),
			errcodes.CacheError,
			"cache invalidation failed",
		)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.InvalidateResponse{
		ModelVersion: version,
		DeletedKeys:  int(deleted),
	})

	return nil
}
