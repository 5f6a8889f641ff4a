package applog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
)

// FileName is the append-only log file created in the log directory
const FileName = "shamela.log"

// LevelSetter is implemented by loggers whose minimum level can be raised at runtime
type LevelSetter interface {
	SetLevel(level logging.Level)
}

// Plugin writes frontend and shell log entries to stdout and a file in the app log directory
type Plugin struct {
	dir    string
	level  logging.Level
	stdout io.Writer
	shell  LevelSetter

	mu     sync.Mutex
	file   *os.File
	logger *logging.DefaultLogger
}

// Option configures the log plugin
type Option func(*Plugin)

// WithStdout replaces os.Stdout as the console target
func WithStdout(w io.Writer) Option {
	return func(p *Plugin) {
		p.stdout = w
	}
}

// WithShellLogger makes Init apply the plugin level to the shell logger
func WithShellLogger(shell LevelSetter) Option {
	return func(p *Plugin) {
		p.shell = shell
	}
}

// New creates the log plugin writing to dir/shamela.log and stdout at level
func New(dir string, level logging.Level, opts ...Option) *Plugin {
	p := &Plugin{dir: dir, level: level, stdout: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string {
	return "log"
}

// Level returns the configured minimum level
func (p *Plugin) Level() logging.Level {
	return p.level
}

// Path returns the log file path
func (p *Plugin) Path() string {
	return filepath.Join(p.dir, FileName)
}

// Init creates the log directory and opens the log file for appending
func (p *Plugin) Init(ctx context.Context) error {
	if p.dir == "" {
		return dberrors.HandleValidationError("log.Init", "dir", "", "log directory cannot be empty")
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", p.dir, err)
	}
	file, err := os.OpenFile(p.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	p.mu.Lock()
	p.file = file
	p.logger = logging.NewLogger(zerolog.MultiLevelWriter(p.stdout, file), p.level).With("source", "webview")
	p.mu.Unlock()

	if p.shell != nil {
		p.shell.SetLevel(p.level)
	}
	return nil
}

// Log records a frontend log entry. Entries below the plugin level are dropped.
func (p *Plugin) Log(level, message string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return dberrors.HandleValidationError("log.Log", "level", level, err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.logger == nil {
		return dberrors.HandleConnectionError("log.Log", "log plugin not initialised")
	}

	switch lvl {
	case logging.LevelDebug:
		p.logger.Debug(message)
	case logging.LevelWarn:
		p.logger.Warn(message)
	case logging.LevelError:
		p.logger.Error(message)
	default:
		p.logger.Info(message)
	}
	return nil
}

// Shutdown closes the log file
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = nil
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}
