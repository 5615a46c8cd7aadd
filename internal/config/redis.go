package config

import "time"

type Redis struct {
	// URL пустой — кеш работает на внутреннем in-memory бекенде.
	URL                string        `env:"REDIS_URL" json:"-"`
	OpTimeout          time.Duration `env:"REDIS_OP_TIMEOUT" envDefault:"5s"`
	PoolSize           int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConnections int           `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
}
