package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/kyleking/starterdb/internal/config"
)

const (
	// File permissions for log directories and files
	logDirPerm  = 0755
	logFilePerm = 0644

	// Like time.TimeOnly plus milliseconds.
	textTimeFormat = "15:04:05.000"
)

// Logger provides structured logging capabilities on top of log/slog
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
	format string
	file   *os.File
}

// Global logger instance
var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitializeLogger builds a logger from cfg, installs it as the global and
// slog default logger and returns it. The caller owns the returned logger and
// closes it when done.
func InitializeLogger(cfg config.LoggingConfig) (*Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	slog.SetDefault(logger.logger)

	return logger, nil
}

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg config.LoggingConfig) (*Logger, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return NewLoggerWithWriter(cfg, os.Stdout), nil
	case "stderr":
		return NewLoggerWithWriter(cfg, os.Stderr), nil
	case "file":
		if cfg.File == "" {
			return nil, errors.New("log file path is required when output is 'file'")
		}

		path := config.ExpandPath(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logger := NewLoggerWithWriter(cfg, file)
		logger.file = file

		return logger, nil
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}
}

// NewLoggerWithWriter creates a logger writing to w. Colour is only used when
// w is a terminal.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *Logger {
	level := &slog.LevelVar{}
	level.Set(parseLogLevel(cfg.Level))

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "text"
	}

	return &Logger{
		logger: slog.New(newHandler(w, format, level, cfg.AddSource || level.Level() == slog.LevelDebug)),
		level:  level,
		format: format,
	}
}

func newHandler(w io.Writer, format string, level slog.Leveler, addSource bool) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: addSource})
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  addSource,
		TimeFormat: textTimeFormat,
		NoColor:    noColor,
	})
}

// parseLogLevel parses a string log level into a slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) derive(args ...any) *Logger {
	return &Logger{
		logger: l.logger.With(args...),
		level:  l.level,
		format: l.format,
		file:   l.file,
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(key, value)
}

// WithFields adds multiple fields to the logger context, sorted by key
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}

	return l.derive(args...)
}

// WithError adds an error to the logger context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	return l.WithField("error", err.Error())
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.logger.Debug(message)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.logger.Info(message)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.logger.Warn(message)
}

// Error logs an error message
func (l *Logger) Error(message string) {
	l.logger.Error(message)
}

// ErrorWithErr logs an error message with an associated error
func (l *Logger) ErrorWithErr(message string, err error) {
	l.logger.Error(message, "error", err)
}

// Close closes the logger and any associated resources
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}

	return nil
}

// GetLogger returns the global logger, falling back to an info-level stderr
// logger when none has been initialized.
func GetLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()

	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, os.Stderr)
	}

	return globalLogger
}

// Discard returns a logger that drops everything; used by tests and by
// components constructed without a logger.
func Discard() *Logger {
	return NewLoggerWithWriter(config.LoggingConfig{Level: "error"}, io.Discard)
}

// Operation runs fn, logging its start, duration and outcome under the
// operation field.
func (l *Logger) Operation(operation string, fn func() error) error {
	logger := l.WithField("operation", operation)
	logger.Debug("Starting operation")

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	if err != nil {
		logger.WithField("duration", duration).ErrorWithErr("Operation failed", err)
	} else {
		logger.WithField("duration", duration).Debug("Operation completed successfully")
	}

	return err
}
