// Package bootstrap wires configuration into the stores, clients and
// services the binaries run.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"e7-casework/casework"
	"e7-casework/config"
	"e7-casework/logging"
	"e7-casework/storage"
	"e7-casework/storage/bbolt"
	"e7-casework/storage/memory"
	"e7-casework/storage/sqlite"
)

// Store is a backend holding both cases and the token index.
type Store interface {
	storage.CaseRepository
	storage.TokenIndex
}

// OpenStore opens the configured backend. The returned func releases it.
func OpenStore(cfg config.Config) (Store, func() error, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreBolt:
		s, err := bbolt.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// NewService builds the casework service over store. A nil notifier
// disables lifecycle notifications.
func NewService(cfg config.Config, store Store, notifier casework.Notifier, logger *zap.Logger) *casework.Service {
	return casework.New(casework.Deps{
		Repo:             store,
		Index:            store,
		Notifier:         notifier,
		Logger:           logger,
		PublicOrigin:     cfg.PublicOrigin,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		ReminderInterval: cfg.ReminderInterval,
		MaxReminders:     cfg.MaxReminders,
	})
}

// DialTemporal connects to the configured Temporal frontend.
func DialTemporal(cfg config.Config, logger *zap.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    logging.NewTemporal(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal: %w", err)
	}
	return c, nil
}
