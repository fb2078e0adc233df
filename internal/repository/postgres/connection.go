package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"messagesearch/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents       string
	Paragraphs      string
	Snapshots       string
	AuditEvents     string
	Reviews         string
	ReviewComments  string
	CollabUpdates   string
	CollabSnapshots string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:       fmt.Sprintf("%sdocuments", prefix),
		Paragraphs:      fmt.Sprintf("%sparagraphs", prefix),
		Snapshots:       fmt.Sprintf("%ssnapshots", prefix),
		AuditEvents:     fmt.Sprintf("%saudit_events", prefix),
		Reviews:         fmt.Sprintf("%sreviews", prefix),
		ReviewComments:  fmt.Sprintf("%sreview_comments", prefix),
		CollabUpdates:   fmt.Sprintf("%scollab_updates", prefix),
		CollabSnapshots: fmt.Sprintf("%scollab_snapshots", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Dynamic table names: the fmt.Sprintf interpolation of table prefixes
// (dev_, test_, prod_) is safe with prepared statements because the SQL
// string is built before it is sent to the database; each environment gets
// its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool. This enables repositories to
// automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
