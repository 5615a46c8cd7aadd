package valuation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"estymator/internal/domain"
	"estymator/internal/domain/entity"
	"estymator/internal/domain/service/features"
	"estymator/internal/domain/value"
	"estymator/pkg/contextx"
	"estymator/pkg/errcodes"
	"estymator/pkg/logx"
)

const defaultStageTimeout = 2 * time.Second

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Service координатор fallback-цепочки: ансамбль → random forest → xgboost →
// эвристика. Стадии пробуются по порядку до первого конечного положительного
// результата; падение любой стадии логируется и не прерывает запрос.
type Service struct {
	registry     Registry
	stageTimeout time.Duration
}

func NewService(registry Registry) *Service {
	return &Service{
		registry:     registry,
		stageTimeout: defaultStageTimeout,
	}
}

// WithStageTimeout ограничивает каждую стадию по времени, чтобы зависшая
// модель не мешала дойти до всегда успешной эвристики.
func (s *Service) WithStageTimeout(d time.Duration) *Service {
	if d > 0 {
		s.stageTimeout = d
	}
	return s
}

type stageOutcome struct {
	price  float64
	method string
	width  float64
}

type stage struct {
	name string
	run  func(ctx context.Context, fv *value.FeatureVector) (stageOutcome, error)
}

// Predict выполняет полный конвейер оценки. Запрос должен быть уже
// валидирован; терминальная эвристика гарантирует, что ответ будет всегда.
func (s *Service) Predict(ctx context.Context, req entity.ValuationRequest) entity.Valuation {
	req = req.Normalized()
	fv := features.Build(req)

	stages := []stage{
		{"ensemble", s.ensembleStage},
		{"random_forest", s.primaryStage},
		{"xgboost", s.secondaryStage},
	}

	out, ok := stageOutcome{}, false

	for _, st := range stages {
		res, err := s.runStage(ctx, st, fv)
		if err != nil {
			logger(ctx).Warn(
				"valuation stage failed",
				slog.String("stage", st.name),
				logx.Error(err),
			)
			continue
		}

		out, ok = res, true
		break
	}

	if !ok {
		out = stageOutcome{
			price:  heuristicPrice(req),
			method: entity.MethodHeuristic,
			width:  widthHeuristic,
		}
	}

	point, low, high := interval(out.price, out.width)

	return entity.Valuation{
		Price:      point,
		MinPrice:   low,
		MaxPrice:   high,
		Currency:   "PLN",
		Method:     out.method,
		Confidence: confidenceLabel(out.width),
		Note:       noteFor(out.method),
		Timestamp:  time.Now(),
	}
}

// Emergency фиксированный ответ на случай неперехваченной ошибки где-то в
// конвейере: доступность важнее, чем отдать клиенту пятисотку.
func Emergency() entity.Valuation {
	point, low, high := interval(emergencyPrice, widthEmergency)

	return entity.Valuation{
		Price:      point,
		MinPrice:   low,
		MaxPrice:   high,
		Currency:   "PLN",
		Method:     entity.MethodEmergency,
		Confidence: confidenceLabel(widthEmergency),
		Note:       noteFor(entity.MethodEmergency),
		Timestamp:  time.Now(),
	}
}

// runStage выполняет стадию в отдельной горутине с таймаутом и перехватом
// паники.
func (s *Service) runStage(ctx context.Context, st stage, fv *value.FeatureVector) (stageOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	type stageResult struct {
		out stageOutcome
		err error
	}

	resCh := make(chan stageResult, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resCh <- stageResult{err: fmt.Errorf("panic in stage: %v", rec)}
			}
		}()

		out, err := st.run(ctx, fv)
		resCh <- stageResult{out: out, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return stageOutcome{}, res.err
		}
		if !isFinitePositive(res.out.price) {
			return stageOutcome{}, domain.NewError(
				errcodes.ModelInferenceError,
				fmt.Sprintf("non-finite or non-positive prediction: %v", res.out.price),
			)
		}
		return res.out, nil
	case <-ctx.Done():
		return stageOutcome{}, domain.WrapError(ctx.Err(), errcodes.TimeoutExceeded, "stage timeout")
	}
}

func (s *Service) ensembleStage(ctx context.Context, fv *value.FeatureVector) (stageOutcome, error) {
	bundle, ok := s.registry.Ensemble()
	if !ok {
		return stageOutcome{}, domain.NewError(errcodes.ModelLoadError, "ensemble bundle not loaded")
	}

	preds := make(map[string]float64, len(bundle.Models))

	for _, name := range bundle.ModelNames() {
		est := bundle.Models[name]

		pred, err := est.Predict(fv.Reconcile(est.Schema()).Values())
		if err != nil {
			logger(ctx).Warn("base model failed", slog.String("model", name), logx.Error(err))
			continue
		}
		if !isFinitePositive(pred) {
			logger(ctx).Warn("base model returned unusable value", slog.String("model", name), slog.Float64("value", pred))
			continue
		}

		preds[name] = pred
	}

	// Единственная выжившая модель: её предсказание отдаётся как есть, но с
	// более широким интервалом.
	if len(preds) == 1 {
		for _, pred := range preds {
			return stageOutcome{price: pred, method: entity.MethodEnsembleSingle, width: widthEnsembleSingle}, nil
		}
	}

	price, err := combine(preds, bundle.Weights)
	if err != nil {
		return stageOutcome{}, err
	}

	width := widthEnsembleDefault
	if bundle.MAPE > 0 {
		width = bundle.MAPE
	}

	return stageOutcome{price: price, method: entity.MethodEnsemble, width: width}, nil
}

func (s *Service) primaryStage(_ context.Context, fv *value.FeatureVector) (stageOutcome, error) {
	m, ok := s.registry.Primary()
	if !ok {
		return stageOutcome{}, domain.NewError(errcodes.ModelLoadError, "primary model not loaded")
	}
	return singleModelStage(m, fv)
}

func (s *Service) secondaryStage(_ context.Context, fv *value.FeatureVector) (stageOutcome, error) {
	m, ok := s.registry.Secondary()
	if !ok {
		return stageOutcome{}, domain.NewError(errcodes.ModelLoadError, "secondary model not loaded")
	}
	return singleModelStage(m, fv)
}

func singleModelStage(m *SingleModel, fv *value.FeatureVector) (stageOutcome, error) {
	pred, err := m.Est.Predict(fv.Reconcile(m.Est.Schema()).Values())
	if err != nil {
		return stageOutcome{}, domain.WrapError(err, errcodes.ModelInferenceError, m.Est.Name())
	}

	return stageOutcome{price: pred, method: m.Method, width: m.Width}, nil
}

func isFinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}
