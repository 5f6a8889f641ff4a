package testutils

import (
	"bytes"
	"encoding/json"
)

// TestingT is the subset of *testing.T the log helpers report through
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// FieldsToMap turns the alternating key/value fields handed to a
// logging.Logger into a map. Dangling values and non-string keys are reported
// and skipped.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	t.Helper()
	out := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}
		out[key] = fields[i+1]
	}
	return out
}

// DecodeLogLines parses zerolog's newline separated JSON output, as written
// to stderr, the log plugin's stdout and shamela.log
func DecodeLogLines(t TestingT, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Errorf("Failed to parse JSON log entry: %v, output: %q", err, line)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// AssertFields reports every key of want that is missing from got or differs
func AssertFields(t TestingT, got, want map[string]any) {
	t.Helper()
	for key, w := range want {
		g, ok := got[key]
		if !ok {
			t.Errorf("Expected field %q not found in %v", key, got)
			continue
		}
		if g != w {
			t.Errorf("Field %q: expected %v (%T), got %v (%T)", key, w, w, g, g)
		}
	}
}
