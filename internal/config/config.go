package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the local state layer.
// Environment variables are parsed from the MAISON_ prefix.
type Config struct {
	// Auth endpoint base, e.g. https://api.maison.example/api
	AuthBaseURL string `envconfig:"AUTH_BASE_URL" default:"http://localhost:8000/api"`

	// Storage backend: memory, sqlite, pebble, redis or mongo
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	// SQLite file or Pebble directory; empty means under the local data dir
	StoragePath   string `envconfig:"STORAGE_PATH" default:""`
	RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"maison"`

	// Delay before the automated support acknowledgement
	AutoReplyDelay time.Duration `envconfig:"AUTO_REPLY_DELAY" default:"2s"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
}

// ResolveDefaults normalises and validates driver names and durations.
func (c *Config) ResolveDefaults() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	if c.StorageDriver == "" {
		c.StorageDriver = "sqlite"
	}
	allowed := map[string]bool{"memory": true, "sqlite": true, "pebble": true, "redis": true, "mongo": true}
	if !allowed[c.StorageDriver] {
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}
	if c.AutoReplyDelay < 0 {
		return fmt.Errorf("AUTO_REPLY_DELAY must be >= 0, got %s", c.AutoReplyDelay)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0, got %s", c.HTTPTimeout)
	}
	c.AuthBaseURL = strings.TrimRight(c.AuthBaseURL, "/")
	return nil
}

// New creates a new Config by parsing environment variables
// prefixed with MAISON_, e.g. MAISON_STORAGE_DRIVER, MAISON_AUTH_BASE_URL.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MAISON", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("auth_base_url", cfg.AuthBaseURL).
		Str("storage_driver", cfg.StorageDriver).
		Str("environment", string(cfg.Environment)).
		Dur("auto_reply_delay", cfg.AutoReplyDelay).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates an in-memory config with no acknowledgement delay.
func NewForTesting() *Config {
	return &Config{
		AuthBaseURL:    "http://localhost:8000/api",
		StorageDriver:  "memory",
		MongoDatabase:  "maison",
		AutoReplyDelay: 0,
		HTTPTimeout:    5 * time.Second,
		LogLevel:       "debug",
		Environment:    EnvTesting,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
