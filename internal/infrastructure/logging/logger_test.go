package logging

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"shamela/internal/testutils"
)

// Mock ClassifiedError for testing
type mockClassifiedError struct {
	message   string
	code      string
	retryable bool
	context   map[string]string
	timestamp time.Time
}

func (m *mockClassifiedError) Error() string                  { return m.message }
func (m *mockClassifiedError) GetCode() string                { return m.code }
func (m *mockClassifiedError) IsRetryable() bool              { return m.retryable }
func (m *mockClassifiedError) GetContext() map[string]string  { return m.context }
func (m *mockClassifiedError) GetTimestamp() time.Time        { return m.timestamp }

// Mock Logger for testing
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg    string
	fields []interface{}
}

func (m *mockLogger) Debug(msg string, fields ...interface{}) {
	m.debugCalls = append(m.debugCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Info(msg string, fields ...interface{}) {
	m.infoCalls = append(m.infoCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Warn(msg string, fields ...interface{}) {
	m.warnCalls = append(m.warnCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Error(msg string, fields ...interface{}) {
	m.errorCalls = append(m.errorCalls, logCall{msg: msg, fields: fields})
}

func TestDefaultLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		message        string
		fields         []interface{}
		levelToken     string
		expectedFields map[string]interface{}
	}{
		{
			name:           "Debug",
			logFunc:        logger.Debug,
			message:        "debug message",
			fields:         []interface{}{"key", "value"},
			levelToken:     "debug",
			expectedFields: map[string]interface{}{"key": "value"},
		},
		{
			name:           "Info",
			logFunc:        logger.Info,
			message:        "info message",
			fields:         []interface{}{"count", 42},
			levelToken:     "info",
			expectedFields: map[string]interface{}{"count": float64(42)}, // JSON numbers are float64
		},
		{
			name:       "Warn",
			logFunc:    logger.Warn,
			message:    "warn message",
			levelToken: "warn",
		},
		{
			name:           "Error",
			logFunc:        logger.Error,
			message:        "error message",
			fields:         []interface{}{"error", errors.New("boom")},
			levelToken:     "error",
			expectedFields: map[string]interface{}{"error": "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.message, tt.fields...)

			entries := testutils.DecodeLogLines(t, buf.Bytes())
			if len(entries) != 1 {
				t.Fatalf("Expected 1 entry, got %d", len(entries))
			}
			entry := entries[0]

			if entry["time"] == nil {
				t.Error("Expected log entry to have time field")
			}
			if entry["level"] != tt.levelToken {
				t.Errorf("Expected level %q, got %q", tt.levelToken, entry["level"])
			}
			if entry["message"] != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry["message"])
			}
			for key, expected := range tt.expectedFields {
				if entry[key] != expected {
					t.Errorf("Expected field %q to be %v, got %v", key, expected, entry[key])
				}
			}
		})
	}
}

func TestDefaultLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.Info("shown")

	entries := testutils.DecodeLogLines(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("Expected only the info entry, got %d entries", len(entries))
	}
	if entries[0]["message"] != "shown" {
		t.Errorf("Expected 'shown', got %v", entries[0]["message"])
	}

	buf.Reset()
	logger.SetLevel(LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Expected debug entry after SetLevel, got %q", buf.String())
	}
}

func TestDefaultLogger_SetLevelReachesChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)
	child := logger.With("plugin", "store")

	child.Info("hidden")
	logger.SetLevel(LevelInfo)
	child.Info("shown")

	entries := testutils.DecodeLogLines(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("Expected one entry, got %d", len(entries))
	}
	testutils.AssertFields(t, entries[0], map[string]interface{}{"message": "shown", "plugin": "store"})
}

func TestDefaultLogger_SetLevelWhileLogging(t *testing.T) {
	logger := NewLogger(io.Discard, LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				logger.Debug("tick", "n", j)
				logger.Info("tick", "n", j)
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			logger.SetLevel(LevelDebug)
		} else {
			logger.SetLevel(LevelError)
		}
	}
	wg.Wait()
}

func TestDefaultLogger_OddFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	logger.Info("odd", "key", "value", "dangling")

	entry := testutils.DecodeLogLines(t, buf.Bytes())[0]
	if entry["key"] != "value" {
		t.Errorf("Expected key=value, got %v", entry["key"])
	}
	if entry["field_1"] != "dangling" {
		t.Errorf("Expected dangling value under field_1, got %v", entry["field_1"])
	}
}

func TestDefaultLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug).With("plugin", "store")

	logger.Info("scoped")

	entry := testutils.DecodeLogLines(t, buf.Bytes())[0]
	if entry["plugin"] != "store" {
		t.Errorf("Expected plugin=store, got %v", entry["plugin"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogError_WithClassifiedError(t *testing.T) {
	mockLog := &mockLogger{}

	classified := &mockClassifiedError{
		message:   "store write failed",
		code:      "BUSY",
		retryable: true,
		context:   map[string]string{"store": "store.json", "key": "jobs"},
		timestamp: time.Now(),
	}

	LogError(mockLog, classified, "store_set", map[string]interface{}{"attempt": 2})

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Operation failed: store write failed") {
		t.Errorf("Unexpected message %q", call.msg)
	}

	testutils.AssertFields(t, testutils.FieldsToMap(t, call.fields), map[string]interface{}{
		"operation":  "store_set",
		"error_code": "BUSY",
		"retryable":  true,
		"store":      "store.json",
		"key":        "jobs",
		"attempt":    2,
	})
}

func TestLogError_WithRegularError(t *testing.T) {
	mockLog := &mockLogger{}

	LogError(mockLog, errors.New("regular error"), "test_operation", map[string]interface{}{"context": "value"})

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Unexpected error: regular error") {
		t.Errorf("Unexpected message %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)
	if fieldsMap["operation"] != "test_operation" {
		t.Errorf("Expected operation field, got %v", fieldsMap["operation"])
	}
	if fieldsMap["context"] != "value" {
		t.Errorf("Expected context field, got %v", fieldsMap["context"])
	}
}

func TestLogOperation(t *testing.T) {
	mockLog := &mockLogger{}

	LogOperation(mockLog, "scrape_book", 150*time.Millisecond, map[string]interface{}{"pages": 12})

	if len(mockLog.infoCalls) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(mockLog.infoCalls))
	}

	fieldsMap := testutils.FieldsToMap(t, mockLog.infoCalls[0].fields)
	if fieldsMap["duration_ms"] != int64(150) {
		t.Errorf("Expected duration_ms 150, got %v", fieldsMap["duration_ms"])
	}
	if fieldsMap["pages"] != 12 {
		t.Errorf("Expected pages 12, got %v", fieldsMap["pages"])
	}
}

func TestWailsLoggerAdapter(t *testing.T) {
	mockLog := &mockLogger{}
	adapter := NewWailsLoggerAdapter(mockLog)

	adapter.Print("print")
	adapter.Trace("trace")
	adapter.Warning("warning")
	adapter.Fatal("fatal")

	if len(mockLog.infoCalls) != 1 || len(mockLog.debugCalls) != 1 || len(mockLog.warnCalls) != 1 || len(mockLog.errorCalls) != 1 {
		t.Fatalf("Unexpected routing: info=%d debug=%d warn=%d error=%d",
			len(mockLog.infoCalls), len(mockLog.debugCalls), len(mockLog.warnCalls), len(mockLog.errorCalls))
	}

	fields := testutils.FieldsToMap(t, mockLog.errorCalls[0].fields)
	if fields["source"] != "wails" || fields["level"] != "fatal" {
		t.Errorf("Expected wails fatal fields, got %v", fields)
	}
}
