package errors

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestClassifySQLiteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not sqlite", errors.New("boom"), ErrCodeUnknown},
		{"primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, ErrCodeDuplicate},
		{"not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, ErrCodeValidation},
		{"other constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, ErrCodeConstraint},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ErrCodeBusy},
		{"cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, ErrCodeConnection},
		{"not a database", sqlite3.Error{Code: sqlite3.ErrNotADB}, ErrCodeCorruption},
		{"schema", sqlite3.Error{Code: sqlite3.ErrSchema}, ErrCodeSchema},
		{"misuse", sqlite3.Error{Code: sqlite3.ErrMisuse}, ErrCodeInternal},
		{"interrupt", sqlite3.Error{Code: sqlite3.ErrInterrupt}, ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySQLiteError(tt.err); got != tt.want {
				t.Errorf("classifySQLiteError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifySQLiteError_KVEntries(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`SELECT value FROM kv_entries WHERE store = ? AND key = ?`, "store.json", "jobs")
	if got := classifySQLiteError(err); got != ErrCodeSchema {
		t.Errorf("Missing table classified as %s (%v), want %s", got, err, ErrCodeSchema)
	}

	if _, err := db.Exec(`CREATE TABLE kv_entries (
		store TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (store, key)
	)`); err != nil {
		t.Fatal(err)
	}

	insert := `INSERT INTO kv_entries (store, key, value, updated_at) VALUES (?, ?, ?, 1)`
	if _, err := db.Exec(insert, "store.json", "jobs", "[]"); err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(insert, "store.json", "jobs", "[1]")
	if got := classifySQLiteError(err); got != ErrCodeDuplicate {
		t.Errorf("Duplicate key classified as %s (%v), want %s", got, err, ErrCodeDuplicate)
	}

	_, err = db.Exec(insert, "store.json", "other", nil)
	if got := classifySQLiteError(err); got != ErrCodeValidation {
		t.Errorf("NULL value classified as %s (%v), want %s", got, err, ErrCodeValidation)
	}
}
