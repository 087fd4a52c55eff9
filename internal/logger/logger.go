// Package logger builds the zap loggers used by the server and the CLIs.
//
// JSON output for production, console output for local runs. The level is
// held in a zap.AtomicLevel so it can be changed while the process runs.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger pairs a zap logger with the atomic level driving it.
type Logger struct {
	*zap.Logger
	Level zap.AtomicLevel
}

// New builds a logger.
// level: debug, info, warn, error
// format: json or console
func New(level, format string) (*Logger, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = atomicLevel

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: l, Level: atomicLevel}, nil
}

// SetLevel changes the level of an already built logger.
func (l *Logger) SetLevel(level string) error {
	return l.Level.UnmarshalText([]byte(level))
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), Level: zap.NewAtomicLevel()}
}
