// Package logging builds the categorized zap loggers used by asi.
// Every category is a named child of one root logger; a category switched off in the
// config gets a no-op logger.
package logging

import (
	"fmt"
	"strings"

	"asi/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, flag and config resolution
	CategoryConfig     Category = "config"     // Config file and env overrides
	CategoryIntegrand  Category = "integrand"  // Expression compilation, builtin lookup
	CategoryQuadrature Category = "quadrature" // Split/accept decisions of the integrator
)

// New builds the root logger from cfg. Output goes to stderr so stdout carries only results.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.DebugMode {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps debug/info/warn/error to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// For returns the logger for a category.
func For(base *zap.Logger, cfg config.LoggingConfig, cat Category) *zap.Logger {
	if base == nil || !cfg.IsCategoryEnabled(string(cat)) {
		return zap.NewNop()
	}
	return base.Named(string(cat))
}
