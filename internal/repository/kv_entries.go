package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Get returns the raw value stored under key
func (r *SQLiteRepository) Get(ctx context.Context, store, key string) (string, bool, error) {
	const op = "Get"
	if err := validateStore(op, store); err != nil {
		return "", false, err
	}
	if err := validateKey(op, key); err != nil {
		return "", false, err
	}

	var value string
	found := true
	err := r.run(ctx, op, map[string]string{"store": store, "key": key}, func() error {
		err := r.q.QueryRowContext(ctx,
			"SELECT value FROM kv_entries WHERE store = ? AND key = ?", store, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = true
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// Put inserts or replaces the value stored under key
func (r *SQLiteRepository) Put(ctx context.Context, store, key, value string) error {
	const op = "Put"
	if err := validateStore(op, store); err != nil {
		return err
	}
	if err := validateKey(op, key); err != nil {
		return err
	}

	return r.run(ctx, op, map[string]string{"store": store, "key": key}, func() error {
		return r.put(ctx, store, key, value)
	})
}

func (r *SQLiteRepository) put(ctx context.Context, store, key, value string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO kv_entries (store, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		store, key, value, time.Now().UnixMilli())
	return err
}

// Delete removes key and reports whether it existed
func (r *SQLiteRepository) Delete(ctx context.Context, store, key string) (bool, error) {
	const op = "Delete"
	if err := validateStore(op, store); err != nil {
		return false, err
	}

	var affected int64
	err := r.run(ctx, op, map[string]string{"store": store, "key": key}, func() error {
		res, err := r.q.ExecContext(ctx, "DELETE FROM kv_entries WHERE store = ? AND key = ?", store, key)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}
