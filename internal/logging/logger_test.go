package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/starterdb/internal/config"
)

func jsonLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: level, Format: "json"}, &buf)

	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestNewLoggerOutputs(t *testing.T) {
	for _, output := range []string{"stdout", "stderr"} {
		t.Run(output, func(t *testing.T) {
			logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: output})
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Nil(t, logger.file)
			assert.Equal(t, "text", logger.format)
		})
	}
}

func TestNewLoggerFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := NewLogger(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "file",
		File:   logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger.file)

	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewLoggerFileMissingPath(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Output: "file"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file path is required")
}

func TestNewLoggerInvalidOutput(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Output: "syslog"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log output")
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := jsonLogger(t, "info")

	logger.WithField("table", "products").
		WithFields(map[string]interface{}{"rows": 3, "op": "select"}).
		Info("query done")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "query done", entries[0]["msg"])
	assert.Equal(t, "products", entries[0]["table"])
	assert.Equal(t, "select", entries[0]["op"])
	assert.InDelta(t, 3, entries[0]["rows"], 0)
}

func TestLoggerWithError(t *testing.T) {
	logger, buf := jsonLogger(t, "info")

	logger.WithError(errors.New("boom")).Warn("something failed")
	assert.Same(t, logger, logger.WithError(nil))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, "WARN", entries[0]["level"])
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := jsonLogger(t, "warn")

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	logger.ErrorWithErr("error with err", errors.New("cause"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "warn", entries[0]["msg"])
	assert.Equal(t, "error", entries[1]["msg"])
	assert.Equal(t, "cause", entries[2]["error"])
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.WithField("table", "version").Info("tables created")

	out := buf.String()
	assert.Contains(t, out, "tables created")
	assert.Contains(t, out, "table=version")
	assert.NotContains(t, out, "\x1b[", "non-terminal writers never get colour codes")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nobody hears this")
	assert.NoError(t, logger.Close())
}

func resetGlobalLogger(t *testing.T) {
	t.Helper()

	globalMu.Lock()
	saved := globalLogger
	globalLogger = nil
	globalMu.Unlock()

	t.Cleanup(func() {
		globalMu.Lock()
		globalLogger = saved
		globalMu.Unlock()
	})
}

func TestGetLoggerFallback(t *testing.T) {
	resetGlobalLogger(t)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())
}

func TestGetLoggerConcurrentFallback(t *testing.T) {
	resetGlobalLogger(t)

	loggers := make([]*Logger, 8)

	var wg sync.WaitGroup

	for i := range loggers {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			loggers[i] = GetLogger()
		}(i)
	}

	wg.Wait()

	for _, logger := range loggers {
		assert.Same(t, loggers[0], logger)
	}
}

func TestInitializeLogger(t *testing.T) {
	resetGlobalLogger(t)

	savedDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(savedDefault) })

	logFile := filepath.Join(t.TempDir(), "app.log")

	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "file", File: logFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })

	assert.Same(t, logger, GetLogger())

	slog.Info("through the default logger")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "through the default logger")

	_, err = InitializeLogger(config.LoggingConfig{Level: "info", Output: "syslog"})
	require.Error(t, err)
	assert.Same(t, logger, GetLogger(), "a failed initialization keeps the previous logger")
}

func TestLoggerOperation(t *testing.T) {
	logger, buf := jsonLogger(t, "debug")

	err := logger.Operation("open", func() error { return nil })
	require.NoError(t, err)

	failure := errors.New("disk full")
	err = logger.Operation("migrate", func() error { return failure })
	assert.ErrorIs(t, err, failure)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 4)
	assert.Equal(t, "Operation completed successfully", entries[1]["msg"])
	assert.Equal(t, "Operation failed", entries[3]["msg"])
	assert.Equal(t, "migrate", entries[3]["operation"])
}
