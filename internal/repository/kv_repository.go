package repository

import (
	"context"
	"database/sql"

	"shamela/internal/database"
	repoerrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
)

// BatchConfig holds configuration for batch operations
type BatchConfig struct {
	DefaultBatchSize int
	MaxBatchSize     int
}

// DefaultBatchConfig returns sensible defaults for batch operations
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		DefaultBatchSize: 100,
		MaxBatchSize:     1000,
	}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLiteRepository implements KVRepository on the kv_entries table
type SQLiteRepository struct {
	db          *sql.DB
	q           dbtx
	inTx        bool
	dbService   database.Service
	retryConfig *repoerrors.RetryConfig
	batchConfig *BatchConfig
	logger      logging.Logger
}

var _ KVRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository instance
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a new SQLite repository instance with custom configuration
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, batchConfig *BatchConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if batchConfig == nil {
		batchConfig = DefaultBatchConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	db := dbService.DB()
	r := &SQLiteRepository{
		db:          db,
		dbService:   dbService,
		retryConfig: retryConfig,
		batchConfig: batchConfig,
		logger:      logger,
	}
	if db != nil {
		r.q = db
	}
	return r
}

// SetRetryConfig updates the retry configuration for the repository
func (r *SQLiteRepository) SetRetryConfig(config *repoerrors.RetryConfig) {
	if config != nil {
		r.retryConfig = config
	}
}

// SetBatchConfig updates the batch configuration for the repository
func (r *SQLiteRepository) SetBatchConfig(config *BatchConfig) {
	if config != nil {
		r.batchConfig = config
	}
}
