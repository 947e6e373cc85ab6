// Package logger provides a simple logging interface for hostwatch components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DebugEnv forces debug output when set to any non-empty value.
const DebugEnv = "HOSTWATCH_DEBUG"

// Options controls the shared logrus backend.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

var (
	baseMu sync.RWMutex
	base   = newBase(Options{})
)

func newBase(opts Options) *logrus.Logger {
	l := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableLevelTruncation: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = logrus.InfoLevel
	}
	if os.Getenv(DebugEnv) != "" {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	return l
}

// Configure replaces the shared backend used by every logger created with
// New. Loggers created earlier pick up the change on their next call.
func Configure(opts Options) {
	l := newBase(opts)
	baseMu.Lock()
	base = l
	baseMu.Unlock()
}

func backend() *logrus.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// prefixLogger implements Logger on top of the shared logrus backend.
type prefixLogger struct {
	prefix string
}

// New creates a logger that tags every entry with prefix
// (e.g., "ingest" or "agent").
func New(prefix string) Logger {
	return &prefixLogger{prefix: prefix}
}

func (l *prefixLogger) entry() *logrus.Entry {
	b := backend()
	if l.prefix == "" {
		return logrus.NewEntry(b)
	}
	return b.WithField("prefix", l.prefix)
}

func (l *prefixLogger) Debug(format string, args ...interface{}) {
	l.entry().Debugf(format, args...)
}

func (l *prefixLogger) Info(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

func (l *prefixLogger) Warn(format string, args ...interface{}) {
	l.entry().Warnf(format, args...)
}

func (l *prefixLogger) Error(format string, args ...interface{}) {
	l.entry().Errorf(format, args...)
}

// noopLogger implements Logger but discards all messages.
// Useful for testing or when logging is not desired.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing. It is safe for concurrent
// use since sessions log from their own goroutines.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
	l.mu.Unlock()
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// Messages returns a copy of everything captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if any message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	l.messages = l.messages[:0]
	l.mu.Unlock()
}
