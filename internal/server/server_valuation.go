package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"estymator/internal/domain/entity"
	"estymator/internal/domain/service/valuation"
	"estymator/pkg/contextx"
	"estymator/pkg/httpx/reply"
	"estymator/pkg/httpx/req"
	"estymator/pkg/logx"
	"estymator/pkg/rest"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type valuationService interface {
	Predict(ctx context.Context, req entity.ValuationRequest) entity.Valuation
}

type predictionCache interface {
	Lookup(ctx context.Context, version string, req entity.ValuationRequest) (entity.Valuation, bool)
	Store(ctx context.Context, version string, req entity.ValuationRequest, val entity.Valuation)
	InvalidateVersion(ctx context.Context, version string) (int64, error)
	Stats() entity.CacheStats
	Ping(ctx context.Context) error
}

type modelRegistry interface {
	Version() string
	Loaded() map[string]bool
}

type ValuationServer struct {
	valuationService valuationService
	cache            predictionCache
	registry         modelRegistry
}

func NewValuationServer(
	valuationService valuationService,
	cache predictionCache,
	registry modelRegistry,
) ValuationServer {
	return ValuationServer{
		valuationService: valuationService,
		cache:            cache,
		registry:         registry,
	}
}

func (s ValuationServer) postPredict(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ValuationRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	valReq := newDomainValuationRequest(request)
	if err := valReq.Validate(); err != nil {
		return fmt.Errorf("request.Validate: %w", err)
	}

	// Кеш работает по нормализованному запросу: запросы, различающиеся
	// только незаполненными дефолтами, делят один ключ.
	valReq = valReq.Normalized()
	version := s.registry.Version()

	if cached, ok := s.cache.Lookup(ctx, version, valReq); ok {
		reply.JSON(ctx, w, http.StatusOK, newRESTValuation(cached))
		return nil
	}

	val := s.predict(ctx, valReq)

	// Аварийный ответ не кешируется: следующий запрос должен снова попытать
	// счастья в полном конвейере.
	if val.Method != entity.MethodEmergency {
		s.cache.Store(ctx, version, valReq, val)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTValuation(val))

	return nil
}

// predict изолирует конвейер оценки: неперехваченная паника превращается в
// фиксированный аварийный ответ вместо пятисотки.
func (s ValuationServer) predict(ctx context.Context, valReq entity.ValuationRequest) (val entity.Valuation) {
	defer func() {
		if rec := recover(); rec != nil {
			logger(ctx).Error("valuation pipeline panic", slog.Any(logx.FieldError, rec))
			val = valuation.Emergency()
		}
	}()

	return s.valuationService.Predict(ctx, valReq)
}
