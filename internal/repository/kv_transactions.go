package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
)

// WithTransaction executes a function within a database transaction with retry logic
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo KVRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := r.checkConnected("WithTransaction"); err != nil {
		return err
	}
	start := time.Now()

	// Execute transaction with retry logic
	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			repoErr := repoerrors.NewRepositoryError("WithTransaction.Begin", err, r.classifyError(err))
			if repoErr.IsRetryable() {
				r.logger.Debug("Retryable error beginning transaction", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "WithTransaction.Begin", nil)
			}
			return repoErr
		}

		var originalErr error
		var committed bool
		defer func() {
			if !committed {
				if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
					r.logger.Debug("Failed to rollback transaction in WithTransaction",
						"rollback_error", rollbackErr,
						"original_error", originalErr,
						"context", "transaction_cleanup")
				}
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			q:           tx,
			inTx:        true,
			dbService:   r.dbService,
			retryConfig: r.retryConfig,
			batchConfig: r.batchConfig,
			logger:      r.logger,
		}

		// The function should return proper repository errors
		if err := fn(txRepo); err != nil {
			originalErr = err
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			originalErr = err
			repoErr := repoerrors.NewRepositoryError("WithTransaction.Commit", err, r.classifyError(err))
			if repoErr.IsRetryable() {
				r.logger.Debug("Retryable error committing transaction", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "WithTransaction.Commit", nil)
			}
			return repoErr
		}
		committed = true

		return nil
	})

	if err == nil {
		r.logger.Debug("Transaction committed", "duration_ms", time.Since(start).Milliseconds())
	}

	return err
}
