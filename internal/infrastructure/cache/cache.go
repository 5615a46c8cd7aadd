package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"estymator/internal/config"
	"estymator/internal/domain/entity"
	"estymator/pkg/contextx"
	"estymator/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

//nolint:gochecknoglobals
var (
	metricHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Prediction cache hits.",
	})
	metricMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Prediction cache misses.",
	})
	metricErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Prediction cache backend errors.",
	})
	metricInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "estymator",
		Subsystem: "cache",
		Name:      "invalidated_keys_total",
		Help:      "Prediction cache keys removed by invalidation.",
	})
)

// record то, что лежит под ключом: результат оценки и момент записи.
type record struct {
	Valuation valuationPayload `json:"valuation"`
	StoredAt  time.Time        `json:"stored_at"`
}

// valuationPayload плоская сериализация entity.Valuation. Отдельный тип,
// чтобы формат хранения не менялся молча вместе с доменной структурой.
type valuationPayload struct {
	Price      float64   `json:"price"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	Confidence string    `json:"confidence"`
	Note       string    `json:"note"`
	Timestamp  time.Time `json:"timestamp"`
}

// Cache кеш предсказаний поверх выбранного бекенда. Все операции
// best-effort: любая ошибка бекенда логируется, считается и превращается в
// промах — доступность оценки важнее кеша.
type Cache struct {
	backend   backend
	ttl       time.Duration
	opTimeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// New подбирает бекенд: при живом Redis — он, иначе процессный in-memory.
func New(ctx context.Context, client *redis.Client, cfg config.Redis, ttl time.Duration) *Cache {
	c := &Cache{
		ttl:       ttl,
		opTimeout: cfg.OpTimeout,
	}

	if client != nil {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout)
		defer cancel()

		err := client.Ping(pingCtx).Err()
		if err == nil {
			c.backend = newRedisBackend(client)
			return c
		}

		logger(ctx).Warn("redis unreachable, falling back to in-memory cache", logx.Error(err))
	}

	c.backend = newMemoryBackend(ttl)

	return c
}

// NewMemory кеш на процессном бекенде. Для окружений без Redis и для
// тестов.
func NewMemory(ttl, opTimeout time.Duration) *Cache {
	return &Cache{
		backend:   newMemoryBackend(ttl),
		ttl:       ttl,
		opTimeout: opTimeout,
	}
}

// Lookup ищет готовый результат. Второе значение false — промах; ошибки
// бекенда и битые записи тоже промах.
func (c *Cache) Lookup(ctx context.Context, version string, req entity.ValuationRequest) (entity.Valuation, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	key := Key(version, req)

	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, errMiss) {
			c.misses.Add(1)
			metricMisses.Inc()
			return entity.Valuation{}, false
		}

		c.errors.Add(1)
		metricErrors.Inc()
		logger(ctx).Warn("cache lookup failed", slog.String("key", key), logx.Error(err))

		return entity.Valuation{}, false
	}

	var rec record
	if err := json.UnmarshalFromString(raw, &rec); err != nil {
		c.errors.Add(1)
		metricErrors.Inc()
		logger(ctx).Warn("cache entry is not parsable", slog.String("key", key), logx.Error(err))

		return entity.Valuation{}, false
	}

	c.hits.Add(1)
	metricHits.Inc()

	val := rec.Valuation.toEntity()
	val.Cached = true
	val.CacheTimestamp = rec.StoredAt

	return val, true
}

// Store кладёт результат под контентный ключ. Ошибка записи не возвращается
// вызывающему: ответ клиенту от неё не зависит.
func (c *Cache) Store(ctx context.Context, version string, req entity.ValuationRequest, val entity.Valuation) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	key := Key(version, req)

	raw, err := json.MarshalToString(record{
		Valuation: toPayload(val),
		StoredAt:  time.Now(),
	})
	if err != nil {
		c.errors.Add(1)
		metricErrors.Inc()
		logger(ctx).Warn("cache entry is not serializable", slog.String("key", key), logx.Error(err))

		return
	}

	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		c.errors.Add(1)
		metricErrors.Inc()
		logger(ctx).Warn("cache store failed", slog.String("key", key), logx.Error(err))
	}
}

// InvalidateVersion удаляет все ключи указанной версии моделей и возвращает
// число удалённых.
func (c *Cache) InvalidateVersion(ctx context.Context, version string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	deleted, err := c.backend.DeleteByPrefix(ctx, VersionPrefix(version))
	if err != nil {
		c.errors.Add(1)
		metricErrors.Inc()
		return deleted, err
	}

	metricInvalidated.Add(float64(deleted))
	logger(ctx).Info(
		"cache invalidated",
		slog.String("model_version", version),
		slog.Int64("deleted", deleted),
	)

	return deleted, nil
}

// Stats текущие счётчики. Проценты считаются от общего числа обращений.
func (c *Cache) Stats() entity.CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	errs := c.errors.Load()
	total := hits + misses + errs

	stats := entity.CacheStats{
		Hits:          hits,
		Misses:        misses,
		Errors:        errs,
		TotalRequests: total,
		Enabled:       true,
		Backend:       c.backend.Name(),
	}

	if total > 0 {
		stats.HitRate = float64(hits) / float64(total)
		stats.MissRate = float64(misses) / float64(total)
		stats.ErrorRate = float64(errs) / float64(total)
	}

	return stats
}

// Ping проверка бекенда для /health.
func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.backend.Ping(ctx)
}

// Backend имя активного бекенда.
func (c *Cache) Backend() string {
	return c.backend.Name()
}

func toPayload(val entity.Valuation) valuationPayload {
	return valuationPayload{
		Price:      val.Price,
		MinPrice:   val.MinPrice,
		MaxPrice:   val.MaxPrice,
		Currency:   val.Currency,
		Method:     val.Method,
		Confidence: val.Confidence,
		Note:       val.Note,
		Timestamp:  val.Timestamp,
	}
}

func (p valuationPayload) toEntity() entity.Valuation {
	return entity.Valuation{
		Price:      p.Price,
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		Currency:   p.Currency,
		Method:     p.Method,
		Confidence: p.Confidence,
		Note:       p.Note,
		Timestamp:  p.Timestamp,
	}
}
