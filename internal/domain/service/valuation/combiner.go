package valuation

import (
	"estymator/internal/domain"
	"estymator/pkg/errcodes"
)

// ErrEnsembleUnavailable внутренний сигнал: ни одна базовая модель не дала
// предсказания. Наружу не отдаётся, вызывающий продвигает fallback-цепочку.
var ErrEnsembleUnavailable = domain.NewError(
	errcodes.EnsembleUnavailable,
	"no usable base models in ensemble",
)

// combine сводит предсказания базовых моделей в одну цену по персистентным
// весам. Если часть моделей отвалилась, веса ренормализуются по доступному
// подмножеству — результат остаётся честным взвешенным средним, а не
// уползает к нулю.
func combine(preds map[string]float64, weights map[string]float64) (float64, error) {
	if len(preds) == 0 {
		return 0, ErrEnsembleUnavailable
	}

	var sum, totalWeight float64

	for name, pred := range preds {
		weight, ok := weights[name]
		if !ok {
			continue
		}
		sum += weight * pred
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return 0, ErrEnsembleUnavailable
	}

	return sum / totalWeight, nil
}
