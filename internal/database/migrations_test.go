package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "migrations.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_RunMigrations(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db, nil)
	ctx := context.Background()

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("Expected initial version 0, got %d", version)
	}

	if err := runner.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// idempotent
	if err := runner.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	for _, table := range []string{"kv_entries", "goose_db_version"} {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestMigrationRunner_ValidateMigrations(t *testing.T) {
	runner := NewMigrationRunner(nil, nil)
	if err := runner.ValidateMigrations(); err != nil {
		t.Fatalf("ValidateMigrations() error = %v", err)
	}
}

func TestMigrationRunner_NilDB(t *testing.T) {
	runner := NewMigrationRunner(nil, nil)

	if err := runner.RunMigrations(context.Background()); err == nil || err.Error() != "database connection is nil" {
		t.Errorf("Expected nil database error, got %v", err)
	}
	if _, err := runner.GetCurrentVersion(context.Background()); err == nil {
		t.Error("Expected error for nil database")
	}
}
