// Package logger owns the process-wide zap logger shared by the bot, the
// HTTP server and the migration tool.
//
// Development builds log colored console lines at debug level to stderr.
// Production logs JSON at info. A LOG_FILE path tees both streams into a
// file, so every bot session leaves a transcript of quotes and attributions.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a global logger instance
var Logger *zap.Logger

var fallback = sync.OnceValue(func() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
})

// Init builds the global logger for env ("production" or anything else)
func Init(env, logFile string) error {
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	l, err := newConfig(env, logFile).Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Logger = l
	return nil
}

func newConfig(env, logFile string) zap.Config {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if logFile != "" {
		config.OutputPaths = append(config.OutputPaths, logFile)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, logFile)
		// color escapes would end up in the file
		if config.Encoding == "console" {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	return config
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger, or a shared development logger before Init
func Get() *zap.Logger {
	if Logger == nil {
		return fallback()
	}
	return Logger
}

// Named returns the global logger scoped to one process or component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
