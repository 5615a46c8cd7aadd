package valuation

import (
	"sort"

	"estymator/internal/domain/entity"
	"estymator/pkg/lox"
)

// Estimator одиночная регрессионная модель. Predict принимает значения,
// уже выровненные под Schema (порядок колонок совпадает с обучением).
type Estimator interface {
	Name() string
	Schema() []string
	Predict(values []float64) (float64, error)
}

// SingleModel артефакт-вариант: один эстиматор с меткой метода и
// декларированной шириной доверительного интервала.
type SingleModel struct {
	Est    Estimator
	Method string
	Width  float64
}

// EnsembleBundle артефакт-вариант: набор базовых моделей с персистентными
// весами, сохранёнными вместе при обучении. Веса неотрицательны и в сумме
// дают 1.
type EnsembleBundle struct {
	Version string
	MAPE    float64 // задекларированная точность, доли (0.008 = 0.8%)
	Models  map[string]Estimator
	Weights map[string]float64
}

// NewRandomForestModel оборачивает эстиматор в fallback-вариант random
// forest с его декларированной шириной интервала.
func NewRandomForestModel(est Estimator) *SingleModel {
	return &SingleModel{Est: est, Method: entity.MethodRandomForest, Width: widthRandomForest}
}

// NewXGBoostModel оборачивает эстиматор в fallback-вариант xgboost.
func NewXGBoostModel(est Estimator) *SingleModel {
	return &SingleModel{Est: est, Method: entity.MethodXGBoost, Width: widthXGBoost}
}

// ModelNames возвращает имена базовых моделей в стабильном порядке.
func (b *EnsembleBundle) ModelNames() []string {
	names := lox.ReverseMap(b.Models, func(name string, _ Estimator) string {
		return name
	})

	sort.Strings(names)

	return names
}

// Registry иммутабельный реестр загруженных артефактов. Создаётся один раз
// при старте процесса, дальше только читается, поэтому конкурентные запросы
// обходятся без блокировок.
type Registry interface {
	Ensemble() (*EnsembleBundle, bool)
	Primary() (*SingleModel, bool)
	Secondary() (*SingleModel, bool)
	Version() string
	Loaded() map[string]bool
}
