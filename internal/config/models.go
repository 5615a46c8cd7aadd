package config

import "time"

type Models struct {
	Dir          string        `env:"MODELS_DIR" envDefault:"models"`
	EnsembleFile string        `env:"MODEL_ENSEMBLE_FILE" envDefault:"ensemble.json"`
	RFFile       string        `env:"MODEL_RF_FILE" envDefault:"valuation_rf.json"`
	XGBFile      string        `env:"MODEL_XGB_FILE" envDefault:"valuation_xgb.json"`
	StageTimeout time.Duration `env:"PREDICT_STAGE_TIMEOUT" envDefault:"2s"`
}

type Cache struct {
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"6h"`
	StatsInterval time.Duration `env:"CACHE_STATS_INTERVAL" envDefault:"1m"`
}
