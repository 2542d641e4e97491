// Package notify surfaces non-fatal failures to a human operator.
//
// Storage operations never return engine errors to their callers; instead
// they report a short, generic message through a Sink and degrade to an
// empty result.
package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/logging"
)

// Sink receives messages meant for the operator.
type Sink interface {
	Report(message string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(message string)

// Report calls f(message).
func (f SinkFunc) Report(message string) { f(message) }

// Discard drops every message.
var Discard Sink = SinkFunc(func(string) {})

// Terminal prints messages as a "danger" flash line.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	danger *color.Color
}

// NewTerminal returns a Terminal writing to out. When colored is false the
// label is printed without escape codes.
func NewTerminal(out io.Writer, colored bool) *Terminal {
	danger := color.New(color.FgWhite, color.BgRed, color.Bold)
	if colored {
		danger.EnableColor()
	} else {
		danger.DisableColor()
	}

	return &Terminal{out: out, danger: danger}
}

// Report writes the message on its own line.
func (t *Terminal) Report(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = fmt.Fprintf(t.out, "%s %s\n", t.danger.Sprint(" ERROR "), message)
}

// Logger forwards messages to a structured logger at warn level.
type Logger struct {
	logger *logging.Logger
}

// NewLogger returns a Sink backed by logger.
func NewLogger(logger *logging.Logger) *Logger {
	return &Logger{logger: logger.WithField("component", "notify")}
}

// Report logs the message.
func (l *Logger) Report(message string) {
	l.logger.Warn(message)
}

// Recorder keeps every reported message. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Report stores the message.
func (r *Recorder) Report(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, message)
}

// Messages returns a copy of the recorded messages in report order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.messages...)
}

// Count returns how many messages were reported.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.messages)
}

// Reset forgets all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
}

// FromConfig builds the sink selected by cfg.Output.
func FromConfig(cfg config.NotifyConfig, logger *logging.Logger) (Sink, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		return NewTerminal(os.Stderr, cfg.Color && !color.NoColor), nil
	case "log":
		return NewLogger(logger), nil
	case "none":
		return Discard, nil
	default:
		return nil, fmt.Errorf("invalid notify output: %s", cfg.Output)
	}
}
