package repository

import (
	"context"
	"sort"
	"time"

	"shamela/internal/infrastructure/logging"
)

// PutMany writes values into store, one transaction per batch
func (r *SQLiteRepository) PutMany(ctx context.Context, store string, values map[string]string) error {
	const op = "PutMany"
	start := time.Now()

	if len(values) == 0 {
		return nil
	}
	if err := validateStore(op, store); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if err := validateKey(op, key); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	batchSize := r.batchSize(len(keys))
	for i := 0; i < len(keys); i += batchSize {
		batch := keys[i:min(i+batchSize, len(keys))]

		err := r.WithTransaction(ctx, func(repo KVRepository) error {
			txRepo := repo.(*SQLiteRepository)
			for _, key := range batch {
				err := txRepo.run(ctx, op, map[string]string{"store": store, "key": key}, func() error {
					return txRepo.put(ctx, store, key, values[key])
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	logging.LogOperation(r.logger, op, time.Since(start), map[string]interface{}{
		"store": store,
		"count": len(keys),
	})
	return nil
}

// Clear deletes every key of store in one transaction and returns the removed keys
func (r *SQLiteRepository) Clear(ctx context.Context, store string) ([]string, error) {
	const op = "Clear"
	if err := validateStore(op, store); err != nil {
		return nil, err
	}

	var removed []string
	err := r.WithTransaction(ctx, func(repo KVRepository) error {
		keys, err := repo.Keys(ctx, store)
		if err != nil {
			return err
		}
		txRepo := repo.(*SQLiteRepository)
		err = txRepo.run(ctx, op, map[string]string{"store": store}, func() error {
			_, err := txRepo.q.ExecContext(ctx, "DELETE FROM kv_entries WHERE store = ?", store)
			return err
		})
		if err != nil {
			return err
		}
		removed = keys
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// batchSize picks the configured default, capped by the maximum and the work size
func (r *SQLiteRepository) batchSize(total int) int {
	size := r.batchConfig.DefaultBatchSize
	if size <= 0 {
		size = 100
	}
	if r.batchConfig.MaxBatchSize > 0 {
		size = min(size, r.batchConfig.MaxBatchSize)
	}
	return max(min(size, total), 1)
}
