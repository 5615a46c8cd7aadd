// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

// ValuationRequest тело запроса POST /predict.
type ValuationRequest struct {
	City     string  `json:"city" validate:"required"`
	District string  `json:"district,omitempty"`
	Area     float64 `json:"area" validate:"required,gt=0"`
	Rooms    int     `json:"rooms" validate:"required,gte=1"`
	Floor    int     `json:"floor,omitempty"`
	Year     int     `json:"year,omitempty"`

	Condition    string `json:"condition,omitempty"`
	Parking      string `json:"parking,omitempty"`
	Finishing    string `json:"finishing,omitempty"`
	BuildingType string `json:"buildingType,omitempty"`
	Elevator     string `json:"elevator,omitempty"`
	Balcony      string `json:"balcony,omitempty"`
	Transport    string `json:"transport,omitempty"`
}

// ValuationResponse ответ POST /predict.
type ValuationResponse struct {
	Price          float64 `json:"price"`
	MinPrice       float64 `json:"minPrice"`
	MaxPrice       float64 `json:"maxPrice"`
	Currency       string  `json:"currency"`
	Method         string  `json:"method"`
	Confidence     string  `json:"confidence"`
	Note           string  `json:"note"`
	Timestamp      string  `json:"timestamp"`
	Cached         bool    `json:"cached"`
	CacheTimestamp string  `json:"cache_timestamp,omitempty"`
}

// CacheStatsResponse ответ GET /cache/stats.
type CacheStatsResponse struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	TotalRequests int64   `json:"total_requests"`
	HitRate       float64 `json:"hit_rate"`
	MissRate      float64 `json:"miss_rate"`
	ErrorRate     float64 `json:"error_rate"`
	ModelVersion  string  `json:"model_version"`
	CacheEnabled  bool    `json:"cache_enabled"`
	Backend       string  `json:"backend"`
}

// InvalidateResponse ответ POST /cache/invalidate.
type InvalidateResponse struct {
	ModelVersion string `json:"model_version"`
	DeletedKeys  int    `json:"deleted_keys"`
}

// HealthResponse ответ GET /health.
type HealthResponse struct {
	Status string          `json:"status"`
	Cache  CacheHealth     `json:"cache"`
	Models map[string]bool `json:"models_loaded"`
}

// CacheHealth статус кеша внутри HealthResponse.
type CacheHealth struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Backend   string `json:"backend"`
}

// RootResponse ответ GET /.
type RootResponse struct {
	Message      string          `json:"message"`
	Status       string          `json:"status"`
	ModelVersion string          `json:"model_version"`
	ModelsLoaded map[string]bool `json:"models_loaded"`
	CacheHitRate float64         `json:"cache_hit_rate"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string
