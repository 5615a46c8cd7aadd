package entity

import "time"

// Метки метода оценки. Попадают в ответ API и в ключи метрик.
const (
	MethodEnsemble       = "ensemble"
	MethodEnsembleSingle = "ensemble_single"
	MethodRandomForest   = "random_forest"
	MethodXGBoost        = "xgboost"
	MethodHeuristic      = "heuristic_fallback"
	MethodEmergency      = "emergency"
)

// Valuation результат оценки. Создаётся один раз на запрос и после
// конструирования не мутируется: повторное попадание из кеша возвращает
// копию с Cached=true.
type Valuation struct {
	Price          float64
	MinPrice       float64
	MaxPrice       float64
	Currency       string
	Method         string
	Confidence     string
	Note           string
	Timestamp      time.Time
	Cached         bool
	CacheTimestamp time.Time
}

// CacheStats счётчики кеша предсказаний. Живут в памяти процесса и
// обнуляются при рестарте.
type CacheStats struct {
	Hits          int64
	Misses        int64
	Errors        int64
	TotalRequests int64
	HitRate       float64
	MissRate      float64
	ErrorRate     float64
	ModelVersion  string
	Enabled       bool
	Backend       string
}
