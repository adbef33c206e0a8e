package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all process configuration, read from the environment.
type Config struct {
	Env   string `env:"ENV" env-default:"development"`
	Port  string `env:"PORT" env-default:"8080"`
	Debug bool   `env:"DEBUG" env-default:"false"`

	JWTSecret    string `env:"JWT_SECRET" env-default:"strike-secret-key"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"strike.db"`
	RedisURL     string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`

	MarketDataURL  string        `env:"MARKET_DATA_URL" env-default:"https://api.binance.com"`
	TickerCacheTTL time.Duration `env:"TICKER_CACHE_TTL" env-default:"2s"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" env-default:"1m"`
	CancelCutoff  time.Duration `env:"CANCEL_CUTOFF" env-default:"30s"`

	ProfitRates ProfitRates
}

// ProfitRates is the payout percentage of the stake per fixed-payout
// instrument family. TURBO pays by point distance and has no rate.
type ProfitRates struct {
	RiseFall     float64 `env:"PROFIT_RATE_RISE_FALL" env-default:"87"`
	HigherLower  float64 `env:"PROFIT_RATE_HIGHER_LOWER" env-default:"87"`
	TouchNoTouch float64 `env:"PROFIT_RATE_TOUCH_NO_TOUCH" env-default:"87"`
	CallPut      float64 `env:"PROFIT_RATE_CALL_PUT" env-default:"87"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
