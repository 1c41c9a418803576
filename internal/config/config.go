// Package config loads the server and historian settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the full environment configuration. Both binaries read the same struct and
// use the parts they need.
type Config struct {
	Port     int    `env:"TRIOMINOS_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"triominos.db"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	HistorianEnabled   bool   `env:"HISTORIAN_ENABLED" envDefault:"false"`
	HistorianQueue     string `env:"HISTORIAN_QUEUE_NAME" envDefault:"triominos_history"`
	HistorianBatchSize int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushMs   int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`

	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PGHost           string `env:"PG_HOST" envDefault:"localhost"`
	PGPort           string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase       string `env:"PG_DATABASE" envDefault:"triominos"`

	// TokenExpireTime is a Go duration, or "never"/"0" for tokens without expiry.
	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"never"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values env parsing cannot.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid TRIOMINOS_PORT %d", c.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Level is the parsed log level; Validate has already rejected bad values.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// TokenTTL returns 0 for tokens that never expire.
func (c Config) TokenTTL() (time.Duration, error) {
	v := strings.TrimSpace(c.TokenExpireTime)
	if v == "" || v == "never" || v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// HistorianFlushDelay is HISTORIAN_FLUSH_MS as a duration.
func (c Config) HistorianFlushDelay() time.Duration {
	return time.Duration(c.HistorianFlushMs) * time.Millisecond
}
