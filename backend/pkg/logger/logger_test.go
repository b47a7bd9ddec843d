package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		logFile  string
		encoding string
		level    zapcore.Level
		outputs  []string
	}{
		{"development", "development", "", "console", zapcore.DebugLevel, []string{"stderr"}},
		{"development with file", "development", "logs/bot.log", "console", zapcore.DebugLevel, []string{"stderr", "logs/bot.log"}},
		{"production", "production", "", "json", zapcore.InfoLevel, []string{"stderr"}},
		{"production with file", "production", "bot.log", "json", zapcore.InfoLevel, []string{"stderr", "bot.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.env, tt.logFile)
			assert.Equal(t, tt.encoding, cfg.Encoding)
			assert.Equal(t, tt.level, cfg.Level.Level())
			assert.Equal(t, tt.outputs, cfg.OutputPaths)
			assert.Equal(t, "timestamp", cfg.EncoderConfig.TimeKey)
		})
	}
}

func TestInitWritesLogFile(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	path := filepath.Join(t.TempDir(), "logs", "session.log")

	require.NoError(t, Init("production", path))
	Named("test").Info("quote submitted")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"quote submitted"`)
	assert.Contains(t, string(data), `"logger":"test"`)
}

func TestGetBeforeInit(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	assert.Same(t, Get(), Get())
}
