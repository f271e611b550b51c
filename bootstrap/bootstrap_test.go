package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e7-casework/casework"
	"e7-casework/config"
)

func TestOpenStore_Backends(t *testing.T) {
	for _, backend := range []string{config.StoreMemory, config.StoreSQLite, config.StoreBolt} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Config{
				Store:            backend,
				DBPath:           filepath.Join(t.TempDir(), "nested", "cases.db"),
				PublicOrigin:     "http://localhost:8080",
				ReminderInterval: time.Hour,
				MaxReminders:     2,
				MaxUploadBytes:   1 << 20,
			}
			store, closeStore, err := OpenStore(cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeStore()) }()

			svc := NewService(cfg, store, nil, zap.NewNop())
			c, err := svc.CreateCase(context.Background(), casework.NewCase{ForeignerName: "Tran Minh", CompanyName: "Hanbit Robotics"})
			require.NoError(t, err)

			page, err := svc.ResolveUpload(context.Background(), "company", c.Tokens.CompanyToken)
			require.NoError(t, err)
			assert.Equal(t, "Hanbit Robotics", page.CompanyName)
		})
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	_, _, err := OpenStore(config.Config{Store: "postgres", DBPath: filepath.Join(t.TempDir(), "x")})
	assert.Error(t, err)
}
