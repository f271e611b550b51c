// Package config loads process configuration from CASEWORK_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bbolt"
	StoreMemory = "memory"
)

// Config is shared by the server and worker binaries.
type Config struct {
	Environment  string `env:"ENV" envDefault:"development"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	PublicOrigin string `env:"PUBLIC_ORIGIN" envDefault:"http://localhost:8080"`

	Store  string `env:"STORE" envDefault:"sqlite"`
	DBPath string `env:"DB_PATH" envDefault:"data/cases.db"`

	// TemporalHostPort empty disables the lifecycle workflow.
	TemporalHostPort  string `env:"TEMPORAL_HOST_PORT"`
	TemporalNamespace string `env:"TEMPORAL_NAMESPACE" envDefault:"default"`

	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"72h"`
	MaxReminders     int           `env:"MAX_REMINDERS" envDefault:"3"`

	ExportBucket string `env:"EXPORT_BUCKET"`
	AWSRegion    string `env:"AWS_REGION" envDefault:"ap-northeast-2"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Load parses the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "CASEWORK_"})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the binaries cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreBolt, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store != StoreMemory && strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db path is required for %s store", c.Store)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("reminder interval must be positive")
	}
	if c.MaxReminders < 0 {
		return fmt.Errorf("max reminders must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	return nil
}

// TemporalEnabled reports whether a Temporal frontend is configured.
func (c Config) TemporalEnabled() bool {
	return c.TemporalHostPort != ""
}
