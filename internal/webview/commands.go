package webview

import "context"

// GetURL returns the current URL of the window registered under label.
// The URL is passed through as reported; failures are *NotFoundError or *RuntimeError.
func GetURL(ctx context.Context, host Host, label string) (string, error) {
	w, ok := host.WebviewWindow(label)
	if !ok {
		return "", &NotFoundError{Label: label}
	}

	url, err := w.URL(ctx)
	if err != nil {
		return "", &RuntimeError{Op: "url", Label: label, Err: err}
	}
	return url, nil
}

// Eval executes script inside the window registered under label
func Eval(ctx context.Context, host Host, label, script string) error {
	w, ok := host.WebviewWindow(label)
	if !ok {
		return &NotFoundError{Label: label}
	}

	if err := w.Eval(ctx, script); err != nil {
		return &RuntimeError{Op: "eval", Label: label, Err: err}
	}
	return nil
}
