package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 72*time.Hour, cfg.ReminderInterval)
	assert.Equal(t, 3, cfg.MaxReminders)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.TemporalEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CASEWORK_STORE", "bbolt")
	t.Setenv("CASEWORK_DB_PATH", "/tmp/cases.bolt")
	t.Setenv("CASEWORK_TEMPORAL_HOST_PORT", "localhost:7233")
	t.Setenv("CASEWORK_REMINDER_INTERVAL", "1h")
	t.Setenv("CASEWORK_EXPORT_BUCKET", "e7-exports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBolt, cfg.Store)
	assert.Equal(t, "/tmp/cases.bolt", cfg.DBPath)
	assert.True(t, cfg.TemporalEnabled())
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, "e7-exports", cfg.ExportBucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown store", "CASEWORK_STORE", "postgres"},
		{"zero interval", "CASEWORK_REMINDER_INTERVAL", "0s"},
		{"bad duration", "CASEWORK_REMINDER_INTERVAL", "soon"},
		{"negative reminders", "CASEWORK_MAX_REMINDERS", "-1"},
		{"zero upload size", "CASEWORK_MAX_UPLOAD_BYTES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_MemoryStoreNeedsNoPath(t *testing.T) {
	cfg := Config{Store: StoreMemory, ReminderInterval: time.Hour, MaxUploadBytes: 1}
	assert.NoError(t, cfg.Validate())

	cfg.Store = StoreSQLite
	assert.Error(t, cfg.Validate())
}
