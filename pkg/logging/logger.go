// Package logging provides the structured logger used across the connector.
//
// The Logger interface decouples the rest of the library from the underlying
// implementation; the default implementation is backed by uber-go/zap (see
// zap.go). Session-scoped loggers carry a correlation_id field so that every
// line emitted by one client instance can be traced across logs.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of a log level.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Logger defines the logging functionality used by the connector.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithFields returns a logger that attaches the given fields to every entry.
	WithFields(fields ...Field) Logger

	// SetLevel sets the minimum level emitted by the logger.
	SetLevel(level Level)
}

// Field constructors for common types.

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

// textLogger is a minimal line-oriented fallback used when the zap logger
// cannot be constructed, and in tests that want to capture output.
type textLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	fields []Field
}

// NewTextLogger returns a plain text logger writing to stdout.
func NewTextLogger() Logger {
	return &textLogger{out: os.Stdout, level: INFO}
}

// NewTextLoggerTo returns a plain text logger writing to w.
func NewTextLoggerTo(w io.Writer) Logger {
	return &textLogger{out: w, level: DEBUG}
}

func (l *textLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%s %s %s", time.Now().Format(time.RFC3339), level, msg)
	for _, f := range l.fields {
		fmt.Fprintf(l.out, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(l.out, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(l.out)
}

func (l *textLogger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields...) }
func (l *textLogger) Info(msg string, fields ...Field)  { l.log(INFO, msg, fields...) }
func (l *textLogger) Warn(msg string, fields ...Field)  { l.log(WARN, msg, fields...) }
func (l *textLogger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields...) }

func (l *textLogger) WithFields(fields ...Field) Logger {
	clone := &textLogger{out: l.out, level: l.level}
	clone.fields = make([]Field, 0, len(l.fields)+len(fields))
	clone.fields = append(clone.fields, l.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (l *textLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}
