// Package logging builds the zap loggers used across coursegen.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Config selects the encoder and destination of a logger.
type Config struct {
	// Mode is "dev" (console, debug level) or "prod" (JSON, info level).
	Mode string

	// Path, when set, sends output to that file instead of stderr. The
	// terminal viewer uses this so logs do not draw over the screen.
	Path string

	// Level overrides the mode's default level ("debug", "info", ...).
	Level string
}

// New builds a logger for mode with output on stderr.
func New(mode string) (*zap.Logger, error) {
	return NewWithConfig(Config{Mode: mode})
}

// NewWithConfig builds a logger from cfg.
func NewWithConfig(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "prod", "production":
		zc = zap.NewProductionConfig()
	case "", "dev", "development":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log mode %q", cfg.Mode)
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if cfg.Path != "" {
		zc.OutputPaths = []string{cfg.Path}
		zc.ErrorOutputPaths = []string{cfg.Path}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
