package services

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogField represents a structured log field
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, err error, fields ...LogField)
	With(fields ...LogField) Logger
}

// StructuredLogger implements Logger on top of zerolog
type StructuredLogger struct {
	logger zerolog.Logger
}

// NewStructuredLogger creates a JSON logger writing to output
func NewStructuredLogger(level LogLevel, output io.Writer) *StructuredLogger {
	if output == nil {
		output = os.Stdout
	}

	logger := zerolog.New(output).
		Level(toZerologLevel(level)).
		With().Timestamp().Logger()

	return &StructuredLogger{logger: logger}
}

// NewConsoleLogger creates a human-readable logger for terminals
func NewConsoleLogger(level LogLevel, output io.Writer) *StructuredLogger {
	if output == nil {
		output = os.Stderr
	}

	console := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(console).
		Level(toZerologLevel(level)).
		With().Timestamp().Logger()

	return &StructuredLogger{logger: logger}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *StructuredLogger {
	return NewStructuredLogger(LogLevelInfo, os.Stdout)
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...LogField) {
	addFields(l.logger.Debug(), fields).Msg(msg)
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...LogField) {
	addFields(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...LogField) {
	addFields(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, err error, fields ...LogField) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	addFields(event, fields).Msg(msg)
}

// With creates a new logger with additional base fields
func (l *StructuredLogger) With(fields ...LogField) Logger {
	ctx := l.logger.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &StructuredLogger{logger: ctx.Logger()}
}

// Zerolog returns the underlying zerolog.Logger
func (l *StructuredLogger) Zerolog() zerolog.Logger {
	return l.logger
}

// addFields adds typed fields to a zerolog event. Disabled levels yield a nil
// event, on which every method is a no-op.
func addFields(event *zerolog.Event, fields []LogField) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case bool:
			event = event.Bool(f.Key, v)
		case time.Duration:
			event = event.Str(f.Key, v.String())
		case error:
			event = event.AnErr(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	return event
}

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NoopLogger discards everything
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...LogField)        {}
func (NoopLogger) Info(string, ...LogField)         {}
func (NoopLogger) Warn(string, ...LogField)         {}
func (NoopLogger) Error(string, error, ...LogField) {}
func (n NoopLogger) With(...LogField) Logger        { return n }

// Field creates a log field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// String field helper
func String(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// Int field helper
func Int(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// Int64 field helper
func Int64(key string, value int64) LogField {
	return LogField{Key: key, Value: value}
}

// Float64 field helper
func Float64(key string, value float64) LogField {
	return LogField{Key: key, Value: value}
}

// Bool field helper
func Bool(key string, value bool) LogField {
	return LogField{Key: key, Value: value}
}

// Duration field helper
func Duration(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value}
}

// Any field helper for arbitrary values
func Any(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format string // "json" or "console"
	Output io.Writer
}

// NewLoggerFromConfig creates a logger from configuration
func NewLoggerFromConfig(config *LoggerConfig) Logger {
	if config == nil {
		return NewDefaultLogger()
	}

	level := config.Level
	if level == "" {
		level = LogLevelInfo
	}

	if config.Format == "console" || config.Format == "text" {
		return NewConsoleLogger(level, config.Output)
	}
	return NewStructuredLogger(level, config.Output)
}

// ParseLogLevel parses a log level string
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
