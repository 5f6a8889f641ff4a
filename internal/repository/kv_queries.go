package repository

import (
	"context"
	"time"
)

// Keys lists the keys of store in lexical order
func (r *SQLiteRepository) Keys(ctx context.Context, store string) ([]string, error) {
	const op = "Keys"
	if err := validateStore(op, store); err != nil {
		return nil, err
	}

	var keys []string
	err := r.run(ctx, op, map[string]string{"store": store}, func() error {
		keys = keys[:0]
		rows, err := r.q.QueryContext(ctx, "SELECT key FROM kv_entries WHERE store = ? ORDER BY key", store)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Entries returns every entry of store ordered by key
func (r *SQLiteRepository) Entries(ctx context.Context, store string) ([]Entry, error) {
	const op = "Entries"
	if err := validateStore(op, store); err != nil {
		return nil, err
	}

	var entries []Entry
	err := r.run(ctx, op, map[string]string{"store": store}, func() error {
		entries = entries[:0]
		rows, err := r.q.QueryContext(ctx,
			"SELECT key, value, updated_at FROM kv_entries WHERE store = ? ORDER BY key", store)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e       Entry
				updated int64
			)
			if err := rows.Scan(&e.Key, &e.Value, &updated); err != nil {
				return err
			}
			e.UpdatedAt = time.UnixMilli(updated)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of keys in store
func (r *SQLiteRepository) Count(ctx context.Context, store string) (int, error) {
	const op = "Count"
	if err := validateStore(op, store); err != nil {
		return 0, err
	}

	var n int
	err := r.run(ctx, op, map[string]string{"store": store}, func() error {
		return r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_entries WHERE store = ?", store).Scan(&n)
	})
	return n, err
}

// Stores lists the names of stores holding at least one key
func (r *SQLiteRepository) Stores(ctx context.Context) ([]string, error) {
	const op = "Stores"

	var stores []string
	err := r.run(ctx, op, nil, func() error {
		stores = stores[:0]
		rows, err := r.q.QueryContext(ctx, "SELECT DISTINCT store FROM kv_entries ORDER BY store")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			stores = append(stores, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = []string{}
	}
	return stores, nil
}
