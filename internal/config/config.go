package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains service configuration parameters. All values come from
// SALETRACK_-prefixed environment variables; cmd/api loads an optional
// .env file first.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN  string        `env:"PG_DSN"`
	AuthSecret   string        `env:"AUTH_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	RateBurst    int           `env:"RATE_BURST" envDefault:"20"`
	RatePerSec   int           `env:"RATE_PER_SEC" envDefault:"10"`
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SALETRACK_"}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.AuthSecret == "" {
		return nil, errors.New("SALETRACK_AUTH_SECRET is required")
	}
	if cfg.TokenTTL <= 0 || cfg.ChallengeTTL <= 0 {
		return nil, errors.New("token and challenge TTLs must be positive")
	}
	return &cfg, nil
}
