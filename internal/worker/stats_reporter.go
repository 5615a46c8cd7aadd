package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"estymator/internal/domain/entity"
	"estymator/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

//nolint:gochecknoglobals
var (
	metricHitRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Prediction cache hit ratio since process start.",
	})
	metricErrorRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "error_ratio",
		Help:      "Prediction cache error ratio since process start.",
	})
)

type statsSource interface {
	Stats() entity.CacheStats
}

// StatsReporter периодически снимает счётчики кеша: обновляет gauge-метрики
// и пишет цикл в лог, чтобы динамика hit rate была видна без Prometheus.
type StatsReporter struct {
	cache    statsSource
	interval time.Duration
}

func NewStatsReporter(cache statsSource) *StatsReporter {
	return &StatsReporter{
		cache:    cache,
		interval: time.Minute,
	}
}

func (w *StatsReporter) WithInterval(d time.Duration) *StatsReporter {
	if d > 0 {
		w.interval = d
	}
	return w
}

func (w *StatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(ctx)
		}
	}
}

func (w *StatsReporter) report(ctx context.Context) {
	stats := w.cache.Stats()

	metricHitRatio.Set(stats.HitRate)
	metricErrorRatio.Set(stats.ErrorRate)

	logger(ctx).Info(
		"cache stats",
		slog.Int64("hits", stats.Hits),
		slog.Int64("misses", stats.Misses),
		slog.Int64("errors", stats.Errors),
		slog.Int64("total", stats.TotalRequests),
		slog.Float64("hit_rate", stats.HitRate),
		slog.String("backend", stats.Backend),
	)
}
