package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/serialport/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "Valid level: debug", level: "debug"},
		{name: "Valid level: DEBUG (case insensitive)", level: "DEBUG"},
		{name: "Valid level: info", level: "info"},
		{name: "Valid level: INFO", level: "INFO"},
		{name: "Valid level: warn", level: "warn"},
		{name: "Valid level: WARN", level: "WARN"},
		{name: "Valid level: error", level: "error"},
		{name: "Valid level: ERROR", level: "ERROR"},
		{name: "Invalid level: invalid", level: "invalid", wantErr: true},
		{name: "Invalid level: empty string", level: "", wantErr: true},
		{name: "Invalid level: random", level: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &config.Logger{Level: tt.level, Format: "text"}

			result, err := logger.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.True(t, result != nil)
		})
	}
}

func TestLogger_Configure_Format(t *testing.T) {
	for _, format := range []string{"text", "json", "JSON", ""} {
		t.Run("Format: "+format, func(t *testing.T) {
			logger := &config.Logger{Level: "info", Format: format}

			result, err := logger.Configure()
			gt.NoError(t, err)

			// Verify logger can be used
			result.Info("test log message")
		})
	}

	t.Run("Invalid format", func(t *testing.T) {
		logger := &config.Logger{Level: "info", Format: "xml"}
		_, err := logger.Configure()
		gt.Error(t, err)
	})
}

func TestLogger_Configure_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialport.log")
	logger := &config.Logger{Level: "info", Format: "json", Output: path}

	result, err := logger.Configure()
	gt.NoError(t, err)

	type sentryConfig struct {
		DSN string `masq:"secret"`
	}
	result.Info("configured", "sentry", sentryConfig{DSN: "https://key@sentry.example.com/1"})
	gt.NoError(t, logger.Close())
	gt.NoError(t, logger.Close())

	content, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.String(t, string(content)).Contains("configured")
	gt.False(t, strings.Contains(string(content), "key@sentry.example.com"))
}

func TestLogger_Configure_LevelBehavior(t *testing.T) {
	// Test that different log levels actually work
	levels := []string{"debug", "info", "warn", "error"}

	for _, level := range levels {
		t.Run("Level: "+level, func(t *testing.T) {
			logger := &config.Logger{Level: level, Format: "text", Output: "stdout"}

			result, err := logger.Configure()
			gt.NoError(t, err)

			// Test that logger can handle all log levels
			result.Debug("debug message")
			result.Info("info message")
			result.Warn("warn message")
			result.Error("error message")
		})
	}
}

func TestLogger_Flags(t *testing.T) {
	logger := &config.Logger{}
	names := flagNames(logger.Flags())

	gt.Number(t, len(names)).Equal(3)
	gt.True(t, names["log-level"])
	gt.True(t, names["log-format"])
	gt.True(t, names["log-output"])
}
