package webview

import (
	"context"
	"sort"
	"sync"
)

// Window is a live webview window owned by the host runtime
type Window interface {
	Label() string
	// URL returns the window's current URL exactly as the runtime reports it
	URL(ctx context.Context) (string, error)
	// Eval executes script inside the window's content context
	Eval(ctx context.Context, script string) error
}

// Host looks up live windows by label
type Host interface {
	WebviewWindow(label string) (Window, bool)
}

// Registry is a concurrency-safe label → Window map implementing Host
type Registry struct {
	mu      sync.RWMutex
	windows map[string]Window
}

var _ Host = (*Registry)(nil)

// NewRegistry creates an empty window registry
func NewRegistry() *Registry {
	return &Registry{windows: make(map[string]Window)}
}

// Register adds w under its label, replacing any window already using that label
func (r *Registry) Register(w Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[w.Label()] = w
}

// Unregister removes the window with the given label. Unknown labels are ignored.
func (r *Registry) Unregister(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, label)
}

// WebviewWindow looks up the window registered under label
func (r *Registry) WebviewWindow(label string) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[label]
	return w, ok
}

// Labels returns the registered labels in sorted order
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.windows))
	for label := range r.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
