package store

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"shamela/internal/database"
	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/repository"
)

type eventRecorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *eventRecorder) emit(ctx context.Context, name string, data ...interface{}) {
	if name != ChangeEvent || len(data) != 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, data[0].(Change))
}

func newTestStore(t *testing.T) (*Plugin, *eventRecorder) {
	t.Helper()
	logger := logging.NewLogger(io.Discard, logging.LevelDebug)
	rec := &eventRecorder{}

	p := New(database.NewSQLiteService(logger), database.TestConfig(), logger, WithEmitter(rec.emit))
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	p.Startup(context.Background())
	return p, rec
}

func TestStore_SetGet(t *testing.T) {
	t.Parallel()
	p, rec := newTestStore(t)

	jobs := []interface{}{map[string]interface{}{"job_id": "a", "book_id": float64(12)}}
	if err := p.Set("", "jobs", jobs); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := p.Get(DefaultStore, "jobs")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, jobs) {
		t.Errorf("Get() = %#v, want %#v", got, jobs)
	}

	if err := p.Set("", "jobs", "replaced"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := p.Get("", "jobs"); got != "replaced" {
		t.Errorf("Expected overwritten value, got %v", got)
	}

	missing, err := p.Get("", "missing")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v", missing, err)
	}

	if len(rec.changes) != 2 || rec.changes[1] != (Change{Store: DefaultStore, Key: "jobs", Value: "replaced"}) {
		t.Errorf("Unexpected change events %+v", rec.changes)
	}
}

func TestStore_NamedStoresAreIsolated(t *testing.T) {
	t.Parallel()
	p, _ := newTestStore(t)

	if err := p.Set("a.json", "k", 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("b.json", "k", 2); err != nil {
		t.Fatal(err)
	}

	if got, _ := p.Get("a.json", "k"); got != float64(1) {
		t.Errorf("a.json k = %v", got)
	}
	if n, _ := p.Length("b.json"); n != 1 {
		t.Errorf("Length(b.json) = %d", n)
	}
	if n, _ := p.Length(""); n != 0 {
		t.Errorf("Length(default) = %d", n)
	}
}

func TestStore_KeysEntriesDeleteClear(t *testing.T) {
	t.Parallel()
	p, rec := newTestStore(t)

	for key, value := range map[string]interface{}{"b": true, "a": "x", "c": nil} {
		if err := p.Set("", key, value); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := p.Keys("")
	if err != nil || !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v, %v", keys, err)
	}

	entries, err := p.Entries("")
	want := map[string]interface{}{"a": "x", "b": true, "c": nil}
	if err != nil || !reflect.DeepEqual(entries, want) {
		t.Errorf("Entries() = %v, %v", entries, err)
	}

	if ok, _ := p.Has("", "a"); !ok {
		t.Error("Has(a) = false")
	}
	deleted, err := p.Delete("", "a")
	if err != nil || !deleted {
		t.Errorf("Delete(a) = %v, %v", deleted, err)
	}
	deleted, _ = p.Delete("", "a")
	if deleted {
		t.Error("Second delete should report false")
	}
	if ok, _ := p.Has("", "a"); ok {
		t.Error("Has(a) after delete = true")
	}

	rec.changes = nil
	if err := p.Clear(""); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := p.Length(""); n != 0 {
		t.Errorf("Length after clear = %d", n)
	}
	if len(rec.changes) != 2 || rec.changes[0].Value != nil {
		t.Errorf("Expected a removal event per key, got %+v", rec.changes)
	}

	if keys, _ := p.Keys(""); keys == nil || len(keys) != 0 {
		t.Errorf("Keys() on empty store = %#v", keys)
	}
}

func TestStore_Validation(t *testing.T) {
	t.Parallel()
	p, _ := newTestStore(t)

	if err := p.Set("", "", 1); !dberrors.IsValidation(err) {
		t.Errorf("Expected validation error for empty key, got %v", err)
	}
	if err := p.Set("", "ch", make(chan int)); !dberrors.IsValidation(err) {
		t.Errorf("Expected validation error for unencodable value, got %v", err)
	}
	if _, err := p.Get("", ""); !dberrors.IsValidation(err) {
		t.Errorf("Expected validation error for empty key, got %v", err)
	}
}

func TestStore_NoEventsBeforeStartup(t *testing.T) {
	t.Parallel()
	logger := logging.NewLogger(io.Discard, logging.LevelDebug)
	rec := &eventRecorder{}
	p := New(database.NewSQLiteService(logger), database.TestConfig(), logger, WithEmitter(rec.emit))
	if err := p.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(context.Background())

	if err := p.Set("", "k", 1); err != nil {
		t.Fatal(err)
	}
	if len(rec.changes) != 0 {
		t.Errorf("Expected no events before Startup, got %v", rec.changes)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	logger := logging.NewLogger(io.Discard, logging.LevelDebug)
	config := database.DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "store.db")

	first := New(database.NewSQLiteService(logger), config, logger, WithEmitter(func(context.Context, string, ...interface{}) {}))
	if err := first.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := first.Set("", "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := first.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := New(database.NewSQLiteService(logger), config, logger)
	if err := second.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer second.Shutdown(context.Background())

	if got, _ := second.Get("", "theme"); got != "dark" {
		t.Errorf("Expected persisted value, got %v", got)
	}
}

func TestStore_NotConnected(t *testing.T) {
	t.Parallel()
	p := New(database.NewSQLiteService(nil), database.TestConfig(), nil)

	if _, err := p.Get("", "k"); !dberrors.IsRetryable(err) {
		t.Errorf("Expected connection error, got %v", err)
	}
}

func TestStore_SetManyAndStores(t *testing.T) {
	t.Parallel()
	p, rec := newTestStore(t)

	err := p.SetMany("jobs.json", map[string]interface{}{
		"a": map[string]interface{}{"status": "done"},
		"b": float64(3),
	})
	if err != nil {
		t.Fatalf("SetMany() error = %v", err)
	}
	if len(rec.changes) != 2 {
		t.Errorf("Expected one event per key, got %+v", rec.changes)
	}
	if got, _ := p.Get("jobs.json", "b"); got != float64(3) {
		t.Errorf("Get(b) = %v", got)
	}

	if err := p.SetMany("jobs.json", map[string]interface{}{"bad": func() {}}); !dberrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	stores, err := p.Stores()
	if err != nil || !reflect.DeepEqual(stores, []string{"jobs.json"}) {
		t.Errorf("Stores() = %v, %v", stores, err)
	}
}

func TestStore_RepositoryFailuresEmitNothing(t *testing.T) {
	t.Parallel()
	rec := &eventRecorder{}
	mock := repository.NewMockRepository()
	p := New(database.NewSQLiteService(nil), database.TestConfig(), nil, WithEmitter(rec.emit))
	p.repo = mock
	p.Startup(context.Background())

	if err := p.Set("", "k", 1); err != nil {
		t.Fatal(err)
	}
	mock.SetFailureModes(true, false, false)

	if err := p.Set("", "k", 2); !dberrors.IsRetryable(err) {
		t.Errorf("Expected busy error, got %v", err)
	}
	if _, err := p.Delete("", "k"); err == nil {
		t.Error("Expected Delete to fail")
	}
	if err := p.Clear(""); err == nil {
		t.Error("Expected Clear to fail")
	}
	if len(rec.changes) != 1 {
		t.Errorf("Failed writes must not emit, got %+v", rec.changes)
	}

	mock.SetFailureModes(false, true, false)
	if _, err := p.Get("", "k"); err == nil {
		t.Error("Expected Get to fail")
	}
	if write, read, _ := mock.GetCallCounts(); write != 4 || read != 1 {
		t.Errorf("Call counts write=%d read=%d", write, read)
	}
}
