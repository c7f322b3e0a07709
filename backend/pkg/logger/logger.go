package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a global logger instance
var Logger *zap.Logger

// Options controls how the global logger is built
type Options struct {
	Env   string // "production" selects the JSON encoder
	Level string // debug, info, warn, error; empty picks the env default
	File  string // optional extra output path
}

// Init initializes the global logger
func Init(opts Options) error {
	var config zap.Config

	if opts.Env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	if opts.File != "" {
		config.OutputPaths = append(config.OutputPaths, opts.File)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Logger, err = config.Build()
	if err != nil {
		return err
	}

	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger instance
func Get() *zap.Logger {
	if Logger == nil {
		// Fallback to a basic logger if not initialized
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return Logger
}
