// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds everything the binaries read from the environment. A .env
// file, when present, is loaded by the caller before parsing.
type Config struct {
	Port int `env:"PORT" envDefault:"8080" validate:"gt=0,lte=65535"`

	MetroAPIBaseURL   string `env:"METRO_API_BASE_URL" envDefault:"https://api.ibb.gov.tr/transit" validate:"url"`
	StaticDataBaseURL string `env:"STATIC_DATA_BASE_URL" validate:"omitempty,url"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s" validate:"gt=0"`

	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./data/favorites.db"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load parses and validates the environment. StaticDataBaseURL falls back
// to the metro API base when unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	if cfg.StaticDataBaseURL == "" {
		cfg.StaticDataBaseURL = cfg.MetroAPIBaseURL
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
