package repository

import (
	"context"
	"time"
)

// Entry is one stored key with its raw JSON value
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KVRepository defines persistence for named key-value stores.
// Values are opaque JSON documents; encoding is the caller's concern.
type KVRepository interface {
	// Single key operations
	Get(ctx context.Context, store, key string) (value string, found bool, err error)
	Put(ctx context.Context, store, key, value string) error
	Delete(ctx context.Context, store, key string) (bool, error)

	// Store-wide queries
	Keys(ctx context.Context, store string) ([]string, error)
	Entries(ctx context.Context, store string) ([]Entry, error)
	Count(ctx context.Context, store string) (int, error)
	Stores(ctx context.Context) ([]string, error)

	// Clear removes every key of store and returns the removed keys
	Clear(ctx context.Context, store string) ([]string, error)

	// PutMany writes values in batched transactions
	PutMany(ctx context.Context, store string, values map[string]string) error

	// Transaction support
	WithTransaction(ctx context.Context, fn func(repo KVRepository) error) error
}
