package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shamela/internal/infrastructure/errors"
)

// MockRepository implements KVRepository in memory for testing
type MockRepository struct {
	mu               sync.RWMutex
	stores           map[string]map[string]Entry
	writeCallCount   int
	readCallCount    int
	transactionCalls int
	shouldFailWrite  bool
	shouldFailRead   bool
	shouldFailTx     bool
}

var _ KVRepository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		stores: make(map[string]map[string]Entry),
	}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(write, read, tx bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailWrite = write
	m.shouldFailRead = read
	m.shouldFailTx = tx
}

// GetCallCounts returns the number of times each kind of method was called
func (m *MockRepository) GetCallCounts() (write, read, tx int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writeCallCount, m.readCallCount, m.transactionCalls
}

func (m *MockRepository) write(op string) error {
	m.writeCallCount++
	if m.shouldFailWrite {
		return errors.NewRepositoryError(op, fmt.Errorf("mock write failure"), errors.ErrCodeBusy)
	}
	return nil
}

func (m *MockRepository) read(op string) error {
	m.readCallCount++
	if m.shouldFailRead {
		return errors.NewRepositoryError(op, fmt.Errorf("mock read failure"), errors.ErrCodeConnection)
	}
	return nil
}

func (m *MockRepository) Get(ctx context.Context, store, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.read("Get"); err != nil {
		return "", false, err
	}
	e, ok := m.stores[store][key]
	return e.Value, ok, nil
}

func (m *MockRepository) Put(ctx context.Context, store, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write("Put"); err != nil {
		return err
	}
	m.put(store, key, value)
	return nil
}

func (m *MockRepository) put(store, key, value string) {
	if m.stores[store] == nil {
		m.stores[store] = make(map[string]Entry)
	}
	m.stores[store][key] = Entry{Key: key, Value: value, UpdatedAt: time.Now()}
}

func (m *MockRepository) PutMany(ctx context.Context, store string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write("PutMany"); err != nil {
		return err
	}
	for key, value := range values {
		m.put(store, key, value)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, store, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write("Delete"); err != nil {
		return false, err
	}
	_, ok := m.stores[store][key]
	delete(m.stores[store], key)
	return ok, nil
}

func (m *MockRepository) sortedKeys(store string) []string {
	keys := make([]string, 0, len(m.stores[store]))
	for key := range m.stores[store] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockRepository) Keys(ctx context.Context, store string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.read("Keys"); err != nil {
		return nil, err
	}
	return m.sortedKeys(store), nil
}

func (m *MockRepository) Entries(ctx context.Context, store string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.read("Entries"); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(m.stores[store]))
	for _, key := range m.sortedKeys(store) {
		entries = append(entries, m.stores[store][key])
	}
	return entries, nil
}

func (m *MockRepository) Count(ctx context.Context, store string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.read("Count"); err != nil {
		return 0, err
	}
	return len(m.stores[store]), nil
}

func (m *MockRepository) Stores(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.read("Stores"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.stores))
	for name, entries := range m.stores {
		if len(entries) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockRepository) Clear(ctx context.Context, store string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write("Clear"); err != nil {
		return nil, err
	}
	keys := m.sortedKeys(store)
	delete(m.stores, store)
	return keys, nil
}

// WithTransaction runs fn against the mock itself; there is no rollback
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repo KVRepository) error) error {
	m.mu.Lock()
	m.transactionCalls++
	fail := m.shouldFailTx
	m.mu.Unlock()

	if fail {
		return errors.NewRepositoryError("WithTransaction", fmt.Errorf("mock transaction failure"), errors.ErrCodeTransaction)
	}
	return fn(m)
}
