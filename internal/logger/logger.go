package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger. If logFile is non-empty, output is written
// there as well as to stderr.
func New(development bool, logFile string) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if logFile != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}

	return cfg.Build()
}

// Must creates a logger or panics
func Must(development bool, logFile string) *zap.Logger {
	log, err := New(development, logFile)
	if err != nil {
		panic(err)
	}
	return log
}
