package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"shamela/internal/database"
	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/repository"
)

const (
	// DefaultStore matches the frontend's load('store.json')
	DefaultStore = "store.json"

	// ChangeEvent is emitted on the event bus after every mutation
	ChangeEvent = "store://change"

	opTimeout = 10 * time.Second
)

// Change is the payload of ChangeEvent. Value is nil when the key was removed.
type Change struct {
	Store string      `json:"store"`
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Emitter publishes an event to the frontend
type Emitter func(ctx context.Context, name string, data ...interface{})

// Plugin is a persistent key-value store of JSON values, split into named stores
type Plugin struct {
	db       database.Service
	dbConfig *database.Config
	retry    *dberrors.RetryConfig
	logger   logging.Logger
	repo     repository.KVRepository

	mu   sync.RWMutex
	ctx  context.Context
	emit Emitter
}

// Option configures the store plugin
type Option func(*Plugin)

// WithEmitter replaces runtime.EventsEmit
func WithEmitter(emit Emitter) Option {
	return func(p *Plugin) {
		if emit != nil {
			p.emit = emit
		}
	}
}

// WithRetryConfig replaces the default retry policy for busy databases
func WithRetryConfig(cfg *dberrors.RetryConfig) Option {
	return func(p *Plugin) {
		if cfg != nil {
			p.retry = cfg
		}
	}
}

// New creates the store plugin over db, connecting with dbConfig at Init
func New(db database.Service, dbConfig *database.Config, logger logging.Logger, opts ...Option) *Plugin {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	p := &Plugin{
		db:       db,
		dbConfig: dbConfig,
		retry:    dberrors.DefaultRetryConfig(),
		logger:   logger,
		emit:     runtime.EventsEmit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string {
	return "store"
}

// Init connects the database, applies migrations and opens the repository
func (p *Plugin) Init(ctx context.Context) error {
	if err := p.db.Connect(ctx, p.dbConfig); err != nil {
		return err
	}
	if p.dbConfig.AutoMigrate {
		if err := p.db.Migrate(ctx); err != nil {
			p.db.Close()
			return err
		}
	}
	p.repo = repository.NewSQLiteRepositoryWithConfig(p.db, p.retry, nil, p.logger)
	return nil
}

// Startup enables change events and reports an unhealthy database
func (p *Plugin) Startup(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.db.Health(healthCtx); err != nil {
		logging.LogError(p.logger, err, "store_health_check", map[string]interface{}{"db_path": p.dbConfig.Path})
	}
}

// Shutdown closes the database
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = nil
	p.mu.Unlock()
	return p.db.Close()
}

func (p *Plugin) notify(store, key string, value interface{}) {
	p.mu.RLock()
	ctx := p.ctx
	p.mu.RUnlock()
	if ctx == nil {
		return
	}
	p.emit(ctx, ChangeEvent, Change{Store: store, Key: key, Value: value})
}

func storeName(store string) string {
	if store == "" {
		return DefaultStore
	}
	return store
}

func (p *Plugin) kv(op string) (repository.KVRepository, error) {
	if p.repo == nil {
		return nil, dberrors.HandleConnectionError(op, "store not initialised")
	}
	return p.repo, nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func decode(op, key, raw string) (interface{}, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, dberrors.HandleDecodeError(op, key, err)
	}
	return value, nil
}

func encode(op, key string, value interface{}) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", dberrors.HandleValidationError(op, "value", key, err.Error())
	}
	return string(raw), nil
}

// Get returns the value stored under key, or nil when absent
func (p *Plugin) Get(store, key string) (interface{}, error) {
	const op = "store.Get"
	repo, err := p.kv(op)
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()

	raw, found, err := repo.Get(ctx, storeName(store), key)
	if err != nil || !found {
		return nil, err
	}
	return decode(op, key, raw)
}

// Set stores value as JSON under key and emits a change event
func (p *Plugin) Set(store, key string, value interface{}) error {
	const op = "store.Set"
	repo, err := p.kv(op)
	if err != nil {
		return err
	}
	raw, err := encode(op, key, value)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()

	name := storeName(store)
	if err := repo.Put(ctx, name, key, raw); err != nil {
		return err
	}
	p.notify(name, key, value)
	return nil
}

// SetMany stores several values at once, emitting a change event per key
func (p *Plugin) SetMany(store string, values map[string]interface{}) error {
	const op = "store.SetMany"
	repo, err := p.kv(op)
	if err != nil {
		return err
	}

	encoded := make(map[string]string, len(values))
	for key, value := range values {
		raw, err := encode(op, key, value)
		if err != nil {
			return err
		}
		encoded[key] = raw
	}
	ctx, cancel := opContext()
	defer cancel()

	name := storeName(store)
	if err := repo.PutMany(ctx, name, encoded); err != nil {
		return err
	}
	for key, value := range values {
		p.notify(name, key, value)
	}
	return nil
}

// Has reports whether key is set in store
func (p *Plugin) Has(store, key string) (bool, error) {
	repo, err := p.kv("store.Has")
	if err != nil {
		return false, err
	}
	ctx, cancel := opContext()
	defer cancel()

	_, found, err := repo.Get(ctx, storeName(store), key)
	return found, err
}

// Delete removes key and reports whether it existed
func (p *Plugin) Delete(store, key string) (bool, error) {
	repo, err := p.kv("store.Delete")
	if err != nil {
		return false, err
	}
	ctx, cancel := opContext()
	defer cancel()

	name := storeName(store)
	deleted, err := repo.Delete(ctx, name, key)
	if err != nil {
		return false, err
	}
	if deleted {
		p.notify(name, key, nil)
	}
	return deleted, nil
}

// Keys lists the keys of a store in lexical order
func (p *Plugin) Keys(store string) ([]string, error) {
	repo, err := p.kv("store.Keys")
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()

	return repo.Keys(ctx, storeName(store))
}

// Entries returns every key and decoded value of a store
func (p *Plugin) Entries(store string) (map[string]interface{}, error) {
	const op = "store.Entries"
	repo, err := p.kv(op)
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()

	rows, err := repo.Entries(ctx, storeName(store))
	if err != nil {
		return nil, err
	}

	entries := make(map[string]interface{}, len(rows))
	for _, row := range rows {
		value, err := decode(op, row.Key, row.Value)
		if err != nil {
			return nil, err
		}
		entries[row.Key] = value
	}
	return entries, nil
}

// Length counts the keys in store
func (p *Plugin) Length(store string) (int, error) {
	repo, err := p.kv("store.Length")
	if err != nil {
		return 0, err
	}
	ctx, cancel := opContext()
	defer cancel()

	return repo.Count(ctx, storeName(store))
}

// Stores lists the stores that hold at least one key
func (p *Plugin) Stores() ([]string, error) {
	repo, err := p.kv("store.Stores")
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()

	return repo.Stores(ctx)
}

// Clear removes every key of a store, emitting a change event per key
func (p *Plugin) Clear(store string) error {
	repo, err := p.kv("store.Clear")
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()

	name := storeName(store)
	removed, err := repo.Clear(ctx, name)
	if err != nil {
		return err
	}
	for _, key := range removed {
		p.notify(name, key, nil)
	}
	return nil
}
