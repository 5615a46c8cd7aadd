package valuation

import (
	"fmt"
	"math"
	"strings"

	"estymator/internal/domain/entity"
)

// Декларированные ширины интервалов по методам. Для ансамбля ширина берётся
// из метаданных бандла (MAPE), эти значения — дефолты.
const (
	widthEnsembleDefault = 0.02
	widthEnsembleSingle  = 0.05
	widthRandomForest    = 0.07
	widthXGBoost         = 0.05
	widthHeuristic       = 0.05
	widthEmergency       = 0.10
)

//nolint:gochecknoglobals
var methodNotes = map[string]string{
	entity.MethodEnsemble:       "valuation by the EstymatorAI weighted ensemble",
	entity.MethodEnsembleSingle: "single ensemble member available, widened interval",
	entity.MethodRandomForest:   "valuation by the Random Forest model",
	entity.MethodXGBoost:        "valuation by the XGBoost model",
	entity.MethodHeuristic:      "heuristic valuation, ML models unavailable",
	entity.MethodEmergency:      "emergency fixed valuation, pipeline failure",
}

func noteFor(method string) string {
	if note, ok := methodNotes[method]; ok {
		return note
	}
	return "unknown valuation method"
}

// roundTo1000 цены и границы интервала всегда кратны 1000 PLN.
func roundTo1000(x float64) float64 {
	return math.Round(x/1000) * 1000
}

// interval строит ценовой интервал: сначала округляется сама цена, затем от
// округлённой цены считаются границы.
func interval(price, width float64) (point, low, high float64) {
	point = roundTo1000(price)
	low = roundTo1000(point * (1 - width))
	high = roundTo1000(point * (1 + width))
	return point, low, high
}

// confidenceLabel форматирует ширину в строку вида "±2%" или "±0.8%".
func confidenceLabel(width float64) string {
	pct := math.Round(width*1000) / 10

	label := fmt.Sprintf("±%.1f%%", pct)
	label = strings.Replace(label, ".0%", "%", 1)

	return label
}
