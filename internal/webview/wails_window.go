package webview

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// DefaultTimeout bounds a single script round trip
const DefaultTimeout = 5 * time.Second

const ackEventPrefix = "webview://ack/"

// Runtime is the slice of the Wails runtime a WailsWindow needs
type Runtime interface {
	ExecJS(ctx context.Context, js string)
	EventsOnce(ctx context.Context, name string, callback func(data ...interface{})) func()
}

type wailsRuntime struct{}

func (wailsRuntime) ExecJS(ctx context.Context, js string) {
	runtime.WindowExecJS(ctx, js)
}

func (wailsRuntime) EventsOnce(ctx context.Context, name string, callback func(data ...interface{})) func() {
	return runtime.EventsOnce(ctx, name, callback)
}

// ScriptError is an exception thrown by a script inside the page.
// Message is the page's String(error), e.g. "SyntaxError: Unexpected token ')'".
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// WailsWindow adapts the Wails main window to Window.
// WindowExecJS is fire-and-forget, so every call wraps the script so the page
// acknowledges completion on the event bus under a per-call id.
type WailsWindow struct {
	label   string
	ctx     context.Context // Wails runtime context from OnStartup
	rt      Runtime
	timeout time.Duration
	newID   func() string
}

var _ Window = (*WailsWindow)(nil)

// WailsOption configures a WailsWindow
type WailsOption func(*WailsWindow)

// WithTimeout bounds each round trip; non-positive values keep the default
func WithTimeout(d time.Duration) WailsOption {
	return func(w *WailsWindow) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRuntime replaces the Wails runtime calls
func WithRuntime(rt Runtime) WailsOption {
	return func(w *WailsWindow) {
		if rt != nil {
			w.rt = rt
		}
	}
}

// NewWailsWindow creates a window bound to the runtime context handed to OnStartup
func NewWailsWindow(runtimeCtx context.Context, label string, opts ...WailsOption) *WailsWindow {
	w := &WailsWindow{
		label:   label,
		ctx:     runtimeCtx,
		rt:      wailsRuntime{},
		timeout: DefaultTimeout,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WailsWindow) Label() string {
	return w.label
}

// URL asks the page for window.location.href
func (w *WailsWindow) URL(ctx context.Context) (string, error) {
	return w.roundTrip(ctx, "r.value=String(window.location.href);")
}

// Eval runs script with indirect eval so it executes in global scope
func (w *WailsWindow) Eval(ctx context.Context, script string) error {
	source, err := json.Marshal(script)
	if err != nil {
		return fmt.Errorf("failed to encode script: %w", err)
	}
	_, err = w.roundTrip(ctx, "(0,eval)("+string(source)+");")
	return err
}

type ackPayload struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
	Error string `json:"error"`
}

func (w *WailsWindow) roundTrip(ctx context.Context, body string) (string, error) {
	event := ackEventPrefix + w.newID()
	eventJSON, _ := json.Marshal(event)

	results := make(chan ackPayload, 1)
	var once sync.Once
	cancel := w.rt.EventsOnce(w.ctx, event, func(data ...interface{}) {
		once.Do(func() { results <- decodeAck(data) })
	})
	defer cancel()

	w.rt.ExecJS(w.ctx, wrapScript(body, string(eventJSON)))

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if !res.OK {
			return "", &ScriptError{Message: res.Error}
		}
		return res.Value, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("window %s did not respond within %s", w.label, w.timeout)
	}
}

func wrapScript(body, eventJSON string) string {
	return "(function(){var r={ok:true,value:\"\"};" +
		"try{" + body + "}catch(e){r={ok:false,error:String(e)};}" +
		"window.runtime.EventsEmit(" + eventJSON + ",r);})();"
}

// decodeAck accepts the payload as Wails delivers it (a decoded JSON object)
func decodeAck(data []interface{}) ackPayload {
	if len(data) == 0 {
		return ackPayload{Error: "empty acknowledgement"}
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return ackPayload{Error: err.Error()}
	}
	var p ackPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ackPayload{Error: fmt.Sprintf("malformed acknowledgement: %v", err)}
	}
	return p
}
