package webview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRuntime answers every ExecJS by firing the pending listener with respond(js)
type fakeRuntime struct {
	mu        sync.Mutex
	listeners map[string]func(...interface{})
	scripts   []string
	respond   func(js string) interface{}
	cancelled int
}

func newFakeRuntime(respond func(js string) interface{}) *fakeRuntime {
	return &fakeRuntime{listeners: make(map[string]func(...interface{})), respond: respond}
}

func (f *fakeRuntime) EventsOnce(ctx context.Context, name string, cb func(...interface{})) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[name] = cb
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, name)
		f.cancelled++
	}
}

func (f *fakeRuntime) ExecJS(ctx context.Context, js string) {
	f.mu.Lock()
	f.scripts = append(f.scripts, js)
	var cb func(...interface{})
	for name, listener := range f.listeners {
		if strings.Contains(js, `"`+name+`"`) {
			cb = listener
		}
	}
	f.mu.Unlock()

	if cb == nil || f.respond == nil {
		return
	}
	payload := f.respond(js)
	go cb(payload)
}

func newTestWindow(rt Runtime, opts ...WailsOption) *WailsWindow {
	opts = append([]WailsOption{WithRuntime(rt)}, opts...)
	w := NewWailsWindow(context.Background(), "main", opts...)
	w.newID = func() string { return "fixed-id" }
	return w
}

func TestWailsWindow_URL(t *testing.T) {
	t.Parallel()
	rt := newFakeRuntime(func(js string) interface{} {
		if !strings.Contains(js, "window.location.href") {
			t.Errorf("URL script should read location.href: %s", js)
		}
		return map[string]interface{}{"ok": true, "value": "https://app.local/index.html"}
	})
	w := newTestWindow(rt)

	url, err := w.URL(context.Background())
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if url != "https://app.local/index.html" {
		t.Errorf("URL() = %q", url)
	}
	if rt.cancelled != 1 {
		t.Errorf("Expected listener to be released, cancelled=%d", rt.cancelled)
	}
}

func TestWailsWindow_Eval(t *testing.T) {
	t.Parallel()

	t.Run("script is quoted and acknowledged", func(t *testing.T) {
		t.Parallel()
		rt := newFakeRuntime(func(js string) interface{} {
			return map[string]interface{}{"ok": true, "value": ""}
		})
		w := newTestWindow(rt)

		if err := w.Eval(context.Background(), `document.title = "x"`); err != nil {
			t.Fatalf("Eval() error = %v", err)
		}
		js := rt.scripts[0]
		if !strings.Contains(js, `(0,eval)("document.title = \"x\"")`) {
			t.Errorf("Script not embedded as a JSON string: %s", js)
		}
		if !strings.Contains(js, `window.runtime.EventsEmit("webview://ack/fixed-id",r)`) {
			t.Errorf("Missing acknowledgement: %s", js)
		}
	})

	t.Run("thrown error text is returned unmodified", func(t *testing.T) {
		t.Parallel()
		rt := newFakeRuntime(func(js string) interface{} {
			return map[string]interface{}{"ok": false, "error": "SyntaxError: Unexpected end of input"}
		})
		w := newTestWindow(rt)

		err := w.Eval(context.Background(), "function(")
		var se *ScriptError
		if !errors.As(err, &se) {
			t.Fatalf("Expected *ScriptError, got %v", err)
		}
		if err.Error() != "SyntaxError: Unexpected end of input" {
			t.Errorf("Error = %q", err.Error())
		}
	})

	t.Run("no acknowledgement times out", func(t *testing.T) {
		t.Parallel()
		w := newTestWindow(newFakeRuntime(nil), WithTimeout(20*time.Millisecond))

		err := w.Eval(context.Background(), ";")
		if err == nil || !strings.Contains(err.Error(), "did not respond") {
			t.Fatalf("Expected timeout error, got %v", err)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()
		w := newTestWindow(newFakeRuntime(nil))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := w.Eval(ctx, ";"); !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestDecodeAck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []interface{}
		want ackPayload
	}{
		{"empty", nil, ackPayload{Error: "empty acknowledgement"}},
		{"success", []interface{}{map[string]interface{}{"ok": true, "value": "v"}}, ackPayload{OK: true, Value: "v"}},
		{"failure", []interface{}{map[string]interface{}{"ok": false, "error": "boom"}}, ackPayload{Error: "boom"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := decodeAck(tt.data); got != tt.want {
				t.Errorf("decodeAck() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if got := decodeAck([]interface{}{"not an object"}); got.OK || !strings.Contains(got.Error, "malformed") {
		t.Errorf("Expected malformed acknowledgement, got %+v", got)
	}
}
