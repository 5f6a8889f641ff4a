package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the shell.
// Fields are alternating key/value pairs: key1, value1, key2, value2, ...
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level filters log output
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name into a Level. Unknown names yield an error.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// DefaultLogger writes JSON lines through zerolog
type DefaultLogger struct {
	zl zerolog.Logger
	// shared with children from With so SetLevel reaches them
	level *atomic.Int32
}

// NewDefaultLogger creates a logger writing to stderr at info level
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, LevelInfo)
}

// NewLogger creates a logger writing JSON lines to w, dropping entries below level
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	l := &DefaultLogger{
		zl:    zerolog.New(w).With().Timestamp().Logger(),
		level: new(atomic.Int32),
	}
	l.SetLevel(level)
	return l
}

// SetLevel changes the minimum level of the logger and its children.
// Safe to call while other goroutines log.
func (l *DefaultLogger) SetLevel(level Level) {
	l.level.Store(int32(level.zerolog()))
}

// With returns a child logger that adds the given fields to every entry
func (l *DefaultLogger) With(fields ...interface{}) *DefaultLogger {
	return &DefaultLogger{zl: l.zl.With().Fields(fieldsToMap(fields)).Logger(), level: l.level}
}

func (l *DefaultLogger) enabled(level zerolog.Level) bool {
	return level >= zerolog.Level(l.level.Load())
}

// fieldsToMap converts the variadic fields slice to a map
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			if key, ok := fields[i].(string); ok {
				result[key] = fields[i+1]
			} else {
				// If key is not a string, use index as key
				result[fmt.Sprintf("field_%d", i/2)] = fields[i]
				result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
			}
		} else {
			// Odd number of fields, add the last one with an index key
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
		}
	}

	return result
}

func (l *DefaultLogger) log(ev *zerolog.Event, msg string, fields []interface{}) {
	if ev == nil {
		return
	}
	for k, v := range fieldsToMap(fields) {
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	if l.enabled(zerolog.DebugLevel) {
		l.log(l.zl.Debug(), msg, fields)
	}
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	if l.enabled(zerolog.InfoLevel) {
		l.log(l.zl.Info(), msg, fields)
	}
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	if l.enabled(zerolog.WarnLevel) {
		l.log(l.zl.Warn(), msg, fields)
	}
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	if l.enabled(zerolog.ErrorLevel) {
		l.log(l.zl.Error(), msg, fields)
	}
}

// ClassifiedError is implemented by typed errors that carry a code and context
// (kept as an interface to avoid an import cycle with infrastructure/errors)
type ClassifiedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs an error with its classification and the given context
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if classified, ok := err.(ClassifiedError); ok {
		fields := []interface{}{
			"operation", operation,
			"error_code", classified.GetCode(),
			"retryable", classified.IsRetryable(),
			"timestamp", classified.GetTimestamp(),
		}
		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}
		for k, v := range context {
			fields = append(fields, k, v)
		}
		logger.Error(fmt.Sprintf("Operation failed: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}
	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
