package repository

import (
	"context"
	"errors"
	"strings"

	repoerrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
)

func (r *SQLiteRepository) checkConnected(op string) error {
	if r.q == nil {
		return repoerrors.HandleConnectionError(op, "database not connected")
	}
	return nil
}

func validateStore(op, store string) error {
	if strings.TrimSpace(store) == "" {
		return repoerrors.HandleValidationError(op, "store", store, "store name cannot be empty")
	}
	return nil
}

func validateKey(op, key string) error {
	if key == "" {
		return repoerrors.HandleValidationError(op, "key", key, "key cannot be empty")
	}
	return nil
}

// run executes fn with retry logic, classifying raw driver errors.
// Inside a transaction fn runs once; the transaction itself is retried.
func (r *SQLiteRepository) run(ctx context.Context, op string, logCtx map[string]string, fn func() error) error {
	if err := r.checkConnected(op); err != nil {
		return err
	}

	attempt := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var repoErr *repoerrors.RepositoryError
		if errors.As(err, &repoErr) {
			return err
		}

		repoErr = repoerrors.NewRepositoryErrorWithContext(op, err, r.classifyError(err), logCtx)
		// Log retryable errors at debug level, non-retryable at error level
		if repoErr.IsRetryable() {
			r.logger.Debug("Retryable error in "+op, "error", err)
		} else {
			fields := make(map[string]interface{}, len(logCtx))
			for k, v := range logCtx {
				fields[k] = v
			}
			logging.LogError(r.logger, repoErr, op, fields)
		}
		return repoErr
	}

	if r.inTx {
		return attempt()
	}
	return repoerrors.WithRetryContext(ctx, r.retryConfig, attempt, op)
}

// classifyError classifies database errors into repository error codes
func (r *SQLiteRepository) classifyError(err error) repoerrors.ErrorCode {
	return repoerrors.ClassifyError(err)
}
