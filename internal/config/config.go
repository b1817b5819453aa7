// Package config loads and validates the process configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend selects which data-service implementation serves the process.
const (
	BackendHosted   = "hosted"
	BackendPostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	Backend     string `env:"BACKEND" envDefault:"hosted"`

	// Hosted backend.
	HostedAPIURL string `env:"HOSTED_API_URL"`
	HostedAPIKey string `env:"HOSTED_API_KEY"`

	// Postgres backend.
	DatabaseURL          string        `env:"DATABASE_URL"`
	RedisURL             string        `env:"REDIS_URL"`
	OperatorPasswordHash string        `env:"OPERATOR_PASSWORD_HASH"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// OperatorEmail is the only identity the admin surface authorizes.
	OperatorEmail string `env:"OPERATOR_EMAIL"`

	// SessionStatePath persists the active session across restarts.
	// Empty disables persistence.
	SessionStatePath string `env:"SESSION_STATE_PATH" envDefault:".contact-admin-session.json"`

	RefreshMargin time.Duration `env:"REFRESH_MARGIN" envDefault:"1m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
}

// Load reads .env if present, parses the environment and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on configuration the server cannot start without.
func (c *Config) Validate() error {
	if c.OperatorEmail == "" {
		return errors.New("config: OPERATOR_EMAIL is required")
	}
	switch c.Backend {
	case BackendHosted:
		if c.HostedAPIURL == "" {
			return errors.New("config: HOSTED_API_URL is required for the hosted backend")
		}
		if c.HostedAPIKey == "" {
			return errors.New("config: HOSTED_API_KEY is required for the hosted backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
		if c.OperatorPasswordHash == "" {
			return errors.New("config: OPERATOR_PASSWORD_HASH is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}
