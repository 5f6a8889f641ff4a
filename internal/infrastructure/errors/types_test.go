package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestRepositoryError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RepositoryError
		contains []string
	}{
		{
			name:     "wrapped error with op and code",
			err:      NewRepositoryError("store_set", errors.New("database is locked"), ErrCodeBusy),
			contains: []string{"database is locked", "op=store_set", "code=BUSY", "retryable=true"},
		},
		{
			name:     "no underlying error",
			err:      &RepositoryError{Op: "fs_write", Code: ErrCodePermission},
			contains: []string{"repository error", "op=fs_write", "code=PERMISSION"},
		},
		{
			name: "context is sorted",
			err: NewRepositoryErrorWithContext("store_get", errors.New("bad json"), ErrCodeDecode,
				map[string]string{"store": "store.json", "key": "jobs"}),
			contains: []string{"key=jobs store=store.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Expected %q to contain %q", msg, want)
				}
			}
		})
	}
}

func TestRepositoryError_NilReceiver(t *testing.T) {
	var err *RepositoryError

	if err.Error() != "repository error" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if err.Unwrap() != nil || err.IsRetryable() || err.GetCode() != "UNKNOWN" {
		t.Error("Nil receiver should behave as an empty error")
	}
	if len(err.GetContext()) != 0 {
		t.Error("Nil receiver should return empty context")
	}
}

func TestRepositoryError_IsAndUnwrap(t *testing.T) {
	base := errors.New("root cause")
	err := NewRepositoryError("op", base, ErrCodeNotFound)

	if !errors.Is(err, base) {
		t.Error("Expected errors.Is to match the wrapped error")
	}
	if !errors.Is(err, &RepositoryError{Code: ErrCodeNotFound}) {
		t.Error("Expected errors.Is to match by code")
	}
	if errors.Is(err, &RepositoryError{Code: ErrCodeBusy}) {
		t.Error("Did not expect a match for a different code")
	}
}

func TestNewRepositoryErrorWithContext_ClonesContext(t *testing.T) {
	ctx := map[string]string{"key": "a"}
	err := NewRepositoryErrorWithContext("op", errors.New("x"), ErrCodeValidation, ctx)

	ctx["key"] = "b"
	if err.Context["key"] != "a" {
		t.Errorf("Context should be cloned, got %q", err.Context["key"])
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		code ErrorCode
		err  error
		want bool
	}{
		{ErrCodeBusy, nil, true},
		{ErrCodeConnection, nil, true},
		{ErrCodeDiskSpace, nil, false},
		{ErrCodeDecode, nil, false},
		{ErrCodePermission, nil, false},
		{ErrCodeUnknown, errors.New("resource temporarily unavailable"), true},
		{ErrCodeUnknown, errors.New("temporary failure in name resolution"), true},
		{ErrCodeUnknown, errors.New("bad input"), false},
	}

	for _, tt := range tests {
		if got := isRetryableError(tt.code, tt.err); got != tt.want {
			t.Errorf("isRetryableError(%s, %v) = %v, want %v", tt.code, tt.err, got, tt.want)
		}
	}
}

func TestClassificationHelpers(t *testing.T) {
	if !IsNotFound(NewRepositoryError("op", nil, ErrCodeNotFound)) {
		t.Error("IsNotFound should match")
	}
	if !IsValidation(HandleValidationError("op", "field", "v", "reason")) {
		t.Error("IsValidation should match")
	}
	if !IsPermission(HandlePermissionError("op", "/etc/passwd", "read")) {
		t.Error("IsPermission should match")
	}
	if !IsTimeout(HandleTimeoutError("op", "5s")) {
		t.Error("IsTimeout should match")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("Plain errors are never classified")
	}
}
