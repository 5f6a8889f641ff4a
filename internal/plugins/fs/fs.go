package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/platform"
)

// reserve kept free on the destination volume after a write
const reserveBytes = 16 << 20

// DiskSpacer reports free bytes on the volume holding a path
type DiskSpacer interface {
	FreeDiskSpace(path string) (uint64, error)
}

// DirEntry describes one ReadDir result
type DirEntry struct {
	Name      string `json:"name"`
	IsDir     bool   `json:"isDirectory"`
	IsFile    bool   `json:"isFile"`
	IsSymlink bool   `json:"isSymlink"`
}

// Plugin gives the frontend filesystem access limited to a set of scope roots
type Plugin struct {
	scopes []string
	evaled []string // scopes with symlinks evaluated
	disk   DiskSpacer
	logger logging.Logger
}

// New creates the fs plugin. A nil disk uses the platform implementation.
func New(scopes []string, disk DiskSpacer, logger logging.Logger) *Plugin {
	if disk == nil {
		disk = platform.NewAPI()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Plugin{scopes: scopes, disk: disk, logger: logger}
}

func (p *Plugin) Name() string {
	return "fs"
}

// Init normalises the scope roots to absolute paths
func (p *Plugin) Init(ctx context.Context) error {
	if len(p.scopes) == 0 {
		return dberrors.HandleValidationError("fs.Init", "scopes", "", "at least one scope root is required")
	}

	cleaned := make([]string, 0, len(p.scopes))
	evaled := make([]string, 0, len(p.scopes))
	for _, scope := range p.scopes {
		abs, err := filepath.Abs(scope)
		if err != nil {
			return dberrors.HandleValidationError("fs.Init", "scopes", scope, err.Error())
		}
		resolved, err := realPath(abs)
		if err != nil {
			return dberrors.HandleValidationError("fs.Init", "scopes", scope, err.Error())
		}
		cleaned = append(cleaned, abs)
		evaled = append(evaled, resolved)
	}
	p.scopes = cleaned
	p.evaled = evaled
	p.logger.Debug("fs plugin scopes", "scopes", cleaned)
	return nil
}

// Scopes returns the normalised scope roots
func (p *Plugin) Scopes() []string {
	return append([]string(nil), p.scopes...)
}

// resolve returns the absolute form of path when it lies inside a scope root,
// both lexically and once symlinks are followed
func (p *Plugin) resolve(op, path, action string) (string, error) {
	if path == "" {
		return "", dberrors.HandleValidationError(op, "path", path, "path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", dberrors.HandleValidationError(op, "path", path, err.Error())
	}
	if !within(p.scopes, abs) {
		return "", dberrors.HandlePermissionError(op, path, action)
	}
	target, err := realPath(abs)
	if err != nil || !within(p.evaled, target) {
		return "", dberrors.HandlePermissionError(op, path, action)
	}
	return abs, nil
}

func within(roots []string, path string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// realPath evaluates symlinks in the longest existing prefix of abs and
// appends the rest. A dangling symlink on the way is an error, since writing
// through it would create its target.
func realPath(abs string) (string, error) {
	existing := abs
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if info, lerr := os.Lstat(existing); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("dangling symlink %s", existing)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

func wrapOSError(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return dberrors.NewRepositoryErrorWithContext(op, err, dberrors.ErrCodeNotFound, map[string]string{"path": path})
	}
	if errors.Is(err, fs.ErrPermission) {
		return dberrors.NewRepositoryErrorWithContext(op, err, dberrors.ErrCodePermission, map[string]string{"path": path})
	}
	return dberrors.WrapDatabaseErrorWithContext(op, err, map[string]string{"path": path})
}

func (p *Plugin) ReadFile(path string) ([]byte, error) {
	abs, err := p.resolve("fs.ReadFile", path, "read")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, wrapOSError("fs.ReadFile", path, err)
	}
	return data, nil
}

func (p *Plugin) ReadTextFile(path string) (string, error) {
	data, err := p.ReadFile(path)
	return string(data), err
}

// WriteFile replaces the file at path, checking free space on the destination first
func (p *Plugin) WriteFile(path string, data []byte) error {
	abs, err := p.resolve("fs.WriteFile", path, "write")
	if err != nil {
		return err
	}
	if err := p.checkSpace("fs.WriteFile", abs, uint64(len(data))); err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return wrapOSError("fs.WriteFile", path, err)
	}
	p.logger.Debug("File written", "path", abs, "bytes", len(data))
	return nil
}

func (p *Plugin) WriteTextFile(path, text string) error {
	return p.WriteFile(path, []byte(text))
}

func (p *Plugin) Exists(path string) (bool, error) {
	abs, err := p.resolve("fs.Exists", path, "stat")
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, wrapOSError("fs.Exists", path, err)
	}
}

func (p *Plugin) Mkdir(path string, recursive bool) error {
	abs, err := p.resolve("fs.Mkdir", path, "create")
	if err != nil {
		return err
	}
	if recursive {
		err = os.MkdirAll(abs, 0o755)
	} else {
		err = os.Mkdir(abs, 0o755)
	}
	if err != nil {
		return wrapOSError("fs.Mkdir", path, err)
	}
	return nil
}

// Remove deletes path. Scope roots themselves cannot be removed.
func (p *Plugin) Remove(path string, recursive bool) error {
	abs, err := p.resolve("fs.Remove", path, "remove")
	if err != nil {
		return err
	}
	for _, scope := range p.scopes {
		if abs == scope {
			return dberrors.HandlePermissionError("fs.Remove", path, "remove scope root")
		}
	}
	if recursive {
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	if err != nil {
		return wrapOSError("fs.Remove", path, err)
	}
	return nil
}

func (p *Plugin) ReadDir(path string) ([]DirEntry, error) {
	abs, err := p.resolve("fs.ReadDir", path, "list")
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, wrapOSError("fs.ReadDir", path, err)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := e.Type()
		result = append(result, DirEntry{
			Name:      e.Name(),
			IsDir:     e.IsDir(),
			IsFile:    mode.IsRegular(),
			IsSymlink: mode&fs.ModeSymlink != 0,
		})
	}
	return result, nil
}

// checkSpace walks up to the nearest existing directory and compares its free space
func (p *Plugin) checkSpace(op, abs string, size uint64) error {
	dir := filepath.Dir(abs)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	free, err := p.disk.FreeDiskSpace(dir)
	if err != nil {
		p.logger.Warn("Free space check skipped", "path", dir, "error", err)
		return nil
	}
	if free < size+reserveBytes {
		return dberrors.HandleDiskSpaceError(op, abs, fmt.Sprintf("%d", size))
	}
	return nil
}
