package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// PostgresSnapshotRepository implements the SnapshotRepository interface.
// Snapshots are append-only; there is deliberately no update or delete.
type PostgresSnapshotRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(config *RepositoryConfig) repositories.SnapshotRepository {
	return &PostgresSnapshotRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a snapshot. The UNIQUE(document_id, version) constraint
// backs the exactly-once-per-transition guarantee at the storage layer.
func (r *PostgresSnapshotRepository) Create(ctx context.Context, snap *models.Snapshot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, version, state, title, body, language_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Snapshots)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		snap.ID,
		snap.DocumentID,
		snap.Version,
		snap.State,
		snap.Title,
		snap.Body,
		snap.LanguageCode,
		snap.CreatedBy,
		snap.CreatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("snapshot for document %s version %d already exists: %w",
				snap.DocumentID, snap.Version, domain.ErrConflict)
		}
		return fmt.Errorf("create snapshot: %w", err)
	}

	return nil
}

// GetByID retrieves a snapshot by ID
func (r *PostgresSnapshotRepository) GetByID(ctx context.Context, id string) (*models.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, state, title, body, language_code, created_by, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Snapshots)

	var snap models.Snapshot
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&snap.ID,
		&snap.DocumentID,
		&snap.Version,
		&snap.State,
		&snap.Title,
		&snap.Body,
		&snap.LanguageCode,
		&snap.CreatedBy,
		&snap.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return &snap, nil
}

// ListByDocument returns snapshots newest first
func (r *PostgresSnapshotRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, state, title, body, language_code, created_by, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version DESC
	`, r.tables.Snapshots)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		err := rows.Scan(
			&snap.ID,
			&snap.DocumentID,
			&snap.Version,
			&snap.State,
			&snap.Title,
			&snap.Body,
			&snap.LanguageCode,
			&snap.CreatedBy,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}

	return snapshots, nil
}
