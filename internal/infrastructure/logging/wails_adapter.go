package logging

import "github.com/wailsapp/wails/v2/pkg/logger"

var _ logger.Logger = (*WailsLoggerAdapter)(nil)

// WailsLoggerAdapter routes the Wails runtime's own log output into our structured logger
type WailsLoggerAdapter struct {
	logger Logger
}

// NewWailsLoggerAdapter creates a new Wails logger adapter using our structured logger
func NewWailsLoggerAdapter(l Logger) *WailsLoggerAdapter {
	if l == nil {
		l = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{
		logger: l,
	}
}

// Print logs a message at INFO level (Wails general output)
func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

// Trace logs a message at DEBUG level (Wails trace output)
func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal logs at ERROR level; the runtime decides whether to exit
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}

// WailsLevel maps our level onto the Wails runtime log level
func WailsLevel(level Level) logger.LogLevel {
	switch level {
	case LevelDebug:
		return logger.DEBUG
	case LevelWarn:
		return logger.WARNING
	case LevelError:
		return logger.ERROR
	default:
		return logger.INFO
	}
}
