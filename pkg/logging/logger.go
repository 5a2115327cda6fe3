// Package logging provides structured logging for the attendance exporter.
// It wraps zerolog to provide a consistent logging interface with support for
// JSON output (scheduled/batch runs) and human-readable output (interactive use).
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey type for context values to avoid collisions.
type ContextKey string

// RunIDKey carries the export-run identifier through context so every log
// line of a run can be correlated.
const RunIDKey ContextKey = "run_id"

// Level represents logging severity levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level Level

	// JSONFormat enables JSON output when true, human-readable when false.
	JSONFormat bool

	// Output sets the writer for logs (defaults to os.Stderr so CSV-to-stdout
	// workflows stay clean).
	Output io.Writer

	// Sinks are optional log sinks for async persistence, e.g. the run log file.
	Sinks []Sink
}

// DefaultConfig returns a Config with sensible defaults for interactive use.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		JSONFormat: false,
		Output:     os.Stderr,
	}
}

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a debug message with optional fields.
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields.
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields.
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields.
	Error(msg string, fields ...Field)

	// With returns a new Logger with the given fields attached to all subsequent logs.
	With(fields ...Field) Logger

	// WithContext returns a new Logger that extracts the run id from the context.
	WithContext(ctx context.Context) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field with the given key and value.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates a Field for an error.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// logger implements the Logger interface using zerolog.
type logger struct {
	zl    zerolog.Logger
	sinks []Sink
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var zl zerolog.Logger
	if cfg.JSONFormat {
		zl = zerolog.New(output).With().Timestamp().Logger()
	} else {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
		zl = zerolog.New(consoleWriter).With().Timestamp().Logger()
	}

	return &logger{zl: zl, sinks: cfg.Sinks}
}

// parseLevel converts Level to zerolog.Level.
func parseLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message.
func (l *logger) Debug(msg string, fields ...Field) {
	event := l.zl.Debug()
	event = addFields(event, fields)
	event.Msg(msg)
	l.sendToSinks("debug", msg, fields)
}

// Info logs an info message.
func (l *logger) Info(msg string, fields ...Field) {
	event := l.zl.Info()
	event = addFields(event, fields)
	event.Msg(msg)
	l.sendToSinks("info", msg, fields)
}

// Warn logs a warning message.
func (l *logger) Warn(msg string, fields ...Field) {
	event := l.zl.Warn()
	event = addFields(event, fields)
	event.Msg(msg)
	l.sendToSinks("warn", msg, fields)
}

// Error logs an error message.
func (l *logger) Error(msg string, fields ...Field) {
	event := l.zl.Error()
	event = addFields(event, fields)
	event.Msg(msg)
	l.sendToSinks("error", msg, fields)
}

// With returns a new logger with additional fields.
func (l *logger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = addFieldToContext(ctx, f)
	}
	return &logger{zl: ctx.Logger(), sinks: l.sinks}
}

// WithContext returns a new logger that includes the run id from context.
func (l *logger) WithContext(ctx context.Context) Logger {
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		return l.With(F("run_id", runID))
	}
	return l
}

// sendToSinks forwards the entry to each configured sink.
func (l *logger) sendToSinks(level, msg string, fields []Field) {
	if len(l.sinks) == 0 {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		entry.Fields[f.Key] = fmt.Sprint(f.Value)
	}

	for _, sink := range l.sinks {
		sink.Write(entry)
	}
}

// addFields applies fields to a zerolog event.
func addFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		event = addFieldToEvent(event, f)
	}
	return event
}

func addFieldToEvent(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case time.Time:
		return event.Time(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}

func addFieldToContext(ctx zerolog.Context, f Field) zerolog.Context {
	switch v := f.Value.(type) {
	case string:
		return ctx.Str(f.Key, v)
	case int:
		return ctx.Int(f.Key, v)
	case int64:
		return ctx.Int64(f.Key, v)
	case bool:
		return ctx.Bool(f.Key, v)
	case time.Duration:
		return ctx.Dur(f.Key, v)
	case time.Time:
		return ctx.Time(f.Key, v)
	case error:
		return ctx.AnErr(f.Key, v)
	default:
		return ctx.Interface(f.Key, v)
	}
}

// NopLogger returns a Logger that discards everything. Useful in tests.
func NopLogger() Logger {
	return &logger{zl: zerolog.Nop()}
}
