package webview

import "errors"

// ErrWindowNotFound matches every *NotFoundError through errors.Is
var ErrWindowNotFound = errors.New("webview window not found")

// NotFoundError reports a label that does not resolve to a live window
type NotFoundError struct {
	Label string
}

func (e *NotFoundError) Error() string {
	return "Webview window not found: " + e.Label
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrWindowNotFound
}

// RuntimeError carries a failure reported by the host runtime for a live window.
// Error() is the runtime's own text, unmodified.
type RuntimeError struct {
	Op    string
	Label string
	Err   error
}

func (e *RuntimeError) Error() string {
	return e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err was caused by an unknown window label
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWindowNotFound)
}

// IsRuntime reports whether err was rejected by the runtime for a live window
func IsRuntime(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
