// Package logging builds the zap loggers used by the binaries.
package logging

import (
	"os"

	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger for production and a console logger otherwise.
// LOG_LEVEL overrides the level.
func New(environment string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			cfg.Level.SetLevel(level)
		}
	}
	return cfg.Build()
}

// Temporal adapts a zap logger to the Temporal SDK logger interface.
type Temporal struct {
	sugar *zap.SugaredLogger
}

var (
	_ log.Logger     = (*Temporal)(nil)
	_ log.WithLogger = (*Temporal)(nil)
)

// NewTemporal wraps l. The caller frame of the SDK wrapper is skipped.
func NewTemporal(l *zap.Logger) *Temporal {
	return &Temporal{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (t *Temporal) Debug(msg string, keyvals ...interface{}) { t.sugar.Debugw(msg, keyvals...) }
func (t *Temporal) Info(msg string, keyvals ...interface{})  { t.sugar.Infow(msg, keyvals...) }
func (t *Temporal) Warn(msg string, keyvals ...interface{})  { t.sugar.Warnw(msg, keyvals...) }
func (t *Temporal) Error(msg string, keyvals ...interface{}) { t.sugar.Errorw(msg, keyvals...) }

// With returns a logger carrying keyvals on every entry.
func (t *Temporal) With(keyvals ...interface{}) log.Logger {
	return &Temporal{sugar: t.sugar.With(keyvals...)}
}
