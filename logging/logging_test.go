package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := New(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestNew_LogLevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	l, err := New("production")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestTemporal_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tl := NewTemporal(zap.New(core))

	tl.Info("reminder sent", "caseId", "CASE-001", "role", "foreigner")
	tl.With("workflow", "lifecycle").Warn("signal dropped")
	tl.Debug("tick")
	tl.Error("failed", "attempt", 3)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "reminder sent", entries[0].Message)
	assert.Equal(t, "CASE-001", entries[0].ContextMap()["caseId"])
	assert.Equal(t, "lifecycle", entries[1].ContextMap()["workflow"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(3), entries[3].ContextMap()["attempt"])
}
