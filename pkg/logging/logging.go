// Package logging builds the zap logger used across threadsplit.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level picks the minimum log level from the verbosity flags.
// quiet wins over verbose.
func Level(verbose, quiet bool) zapcore.Level {
	switch {
	case quiet:
		return zapcore.WarnLevel
	case verbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a console logger writing to stderr.
func New(verbose, quiet bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(Level(verbose, quiet))
	cfg.Development = false
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !verbose
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
