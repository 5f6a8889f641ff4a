package dialog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"shamela/internal/infrastructure/logging"
)

// ErrNotStarted is returned when a dialog is requested before the runtime is up
var ErrNotStarted = errors.New("dialog plugin not started")

// Runtime is the slice of the Wails runtime used for native dialogs
type Runtime interface {
	SaveFileDialog(ctx context.Context, opts runtime.SaveDialogOptions) (string, error)
	OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	OpenMultipleFilesDialog(ctx context.Context, opts runtime.OpenDialogOptions) ([]string, error)
	OpenDirectoryDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error)
}

type wailsRuntime struct{}

func (wailsRuntime) SaveFileDialog(ctx context.Context, opts runtime.SaveDialogOptions) (string, error) {
	return runtime.SaveFileDialog(ctx, opts)
}

func (wailsRuntime) OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenFileDialog(ctx, opts)
}

func (wailsRuntime) OpenMultipleFilesDialog(ctx context.Context, opts runtime.OpenDialogOptions) ([]string, error) {
	return runtime.OpenMultipleFilesDialog(ctx, opts)
}

func (wailsRuntime) OpenDirectoryDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenDirectoryDialog(ctx, opts)
}

func (wailsRuntime) MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error) {
	return runtime.MessageDialog(ctx, opts)
}

// Filter restricts selectable files, e.g. {Name: "EPUB", Extensions: ["epub"]}
type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// SaveOptions configures a save dialog
type SaveOptions struct {
	Title       string   `json:"title,omitempty"`
	DefaultPath string   `json:"defaultPath,omitempty"`
	Filters     []Filter `json:"filters,omitempty"`
}

// OpenOptions configures an open dialog
type OpenOptions struct {
	Title       string   `json:"title,omitempty"`
	DefaultPath string   `json:"defaultPath,omitempty"`
	Filters     []Filter `json:"filters,omitempty"`
	Multiple    bool     `json:"multiple,omitempty"`
	Directory   bool     `json:"directory,omitempty"`
}

// Plugin exposes native dialogs to the frontend
type Plugin struct {
	mu     sync.RWMutex
	ctx    context.Context
	rt     Runtime
	logger logging.Logger
}

// New creates the dialog plugin. A nil rt uses the Wails runtime.
func New(rt Runtime, logger logging.Logger) *Plugin {
	if rt == nil {
		rt = wailsRuntime{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Plugin{rt: rt, logger: logger}
}

func (p *Plugin) Name() string {
	return "dialog"
}

func (p *Plugin) Init(ctx context.Context) error {
	return nil
}

// Startup stores the Wails runtime context
func (p *Plugin) Startup(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx = ctx
}

func (p *Plugin) runtimeContext() (context.Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ctx == nil {
		return nil, ErrNotStarted
	}
	return p.ctx, nil
}

// Save asks for a destination path. A cancelled dialog returns "" and no error.
func (p *Plugin) Save(opts SaveOptions) (string, error) {
	ctx, err := p.runtimeContext()
	if err != nil {
		return "", err
	}
	dir, file := splitDefaultPath(opts.DefaultPath)
	return p.rt.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		DefaultDirectory:     dir,
		DefaultFilename:      file,
		Title:                opts.Title,
		Filters:              toFileFilters(opts.Filters),
		CanCreateDirectories: true,
	})
}

// Open asks for one or more files, or a directory. A cancelled dialog returns nil.
func (p *Plugin) Open(opts OpenOptions) ([]string, error) {
	ctx, err := p.runtimeContext()
	if err != nil {
		return nil, err
	}
	dir, file := splitDefaultPath(opts.DefaultPath)
	wopts := runtime.OpenDialogOptions{
		DefaultDirectory: dir,
		DefaultFilename:  file,
		Title:            opts.Title,
		Filters:          toFileFilters(opts.Filters),
	}

	switch {
	case opts.Directory:
		path, err := p.rt.OpenDirectoryDialog(ctx, wopts)
		return single(path), err
	case opts.Multiple:
		return p.rt.OpenMultipleFilesDialog(ctx, wopts)
	default:
		path, err := p.rt.OpenFileDialog(ctx, wopts)
		return single(path), err
	}
}

// Message shows a dialog of the given kind: "info", "warning" or "error"
func (p *Plugin) Message(message, title, kind string) error {
	ctx, err := p.runtimeContext()
	if err != nil {
		return err
	}
	_, err = p.rt.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    dialogType(kind),
		Title:   title,
		Message: message,
	})
	return err
}

// Ask shows a Yes/No question
func (p *Plugin) Ask(message, title string) (bool, error) {
	return p.question(message, title, "Yes", "No")
}

// Confirm shows an Ok/Cancel question
func (p *Plugin) Confirm(message, title string) (bool, error) {
	return p.question(message, title, "Ok", "Cancel")
}

func (p *Plugin) question(message, title, accept, reject string) (bool, error) {
	ctx, err := p.runtimeContext()
	if err != nil {
		return false, err
	}
	result, err := p.rt.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{accept, reject},
		DefaultButton: accept,
		CancelButton:  reject,
	})
	if err != nil {
		return false, err
	}
	// Linux and Windows ignore custom buttons and answer Yes/No
	switch strings.ToLower(result) {
	case strings.ToLower(accept), "yes", "ok":
		return true, nil
	default:
		return false, nil
	}
}

func dialogType(kind string) runtime.DialogType {
	switch strings.ToLower(kind) {
	case "warning":
		return runtime.WarningDialog
	case "error":
		return runtime.ErrorDialog
	default:
		return runtime.InfoDialog
	}
}

func toFileFilters(filters []Filter) []runtime.FileFilter {
	if len(filters) == 0 {
		return nil
	}
	result := make([]runtime.FileFilter, 0, len(filters))
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
		}
		result = append(result, runtime.FileFilter{
			DisplayName: f.Name,
			Pattern:     strings.Join(patterns, ";"),
		})
	}
	return result
}

func splitDefaultPath(path string) (dir, file string) {
	if path == "" {
		return "", ""
	}
	dir, file = filepath.Split(path)
	return filepath.Clean(dir), file
}

func single(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
