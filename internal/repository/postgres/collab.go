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

// PostgresCollabRepository implements the CollabRepository interface.
// Payloads are opaque bytea values; only the sequence numbers and the
// dedupe hash carry meaning here.
type PostgresCollabRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCollabRepository creates a new collaboration repository
func NewCollabRepository(config *RepositoryConfig) repositories.CollabRepository {
	return &PostgresCollabRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append stores an update, deduplicating on (document_id, hash). A retried
// payload returns the existing sequence number instead of a new row.
func (r *PostgresCollabRepository) Append(ctx context.Context, update *models.CollabUpdate) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, payload, hash, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, r.tables.CollabUpdates)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		update.DocumentID,
		update.Payload,
		update.Hash,
		update.ActorID,
		update.CreatedAt,
	).Scan(&update.Seq)

	if err != nil {
		if IsPgDuplicateError(err) {
			existing := fmt.Sprintf(`SELECT seq FROM %s WHERE document_id = $1 AND hash = $2`, r.tables.CollabUpdates)
			if scanErr := executor.QueryRow(ctx, existing, update.DocumentID, update.Hash).Scan(&update.Seq); scanErr != nil {
				return 0, fmt.Errorf("lookup duplicate update: %w", scanErr)
			}
			return update.Seq, nil
		}
		if IsPgForeignKeyError(err) {
			return 0, fmt.Errorf("document %s: %w", update.DocumentID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("append collab update: %w", err)
	}

	return update.Seq, nil
}

// List returns updates with seq > sinceSeq in ascending order
func (r *PostgresCollabRepository) List(ctx context.Context, documentID string, sinceSeq int64) ([]models.CollabUpdate, error) {
	query := fmt.Sprintf(`
		SELECT seq, document_id, payload, hash, actor_id, created_at
		FROM %s
		WHERE document_id = $1 AND seq > $2
		ORDER BY seq ASC
	`, r.tables.CollabUpdates)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("list collab updates: %w", err)
	}
	defer rows.Close()

	var updates []models.CollabUpdate
	for rows.Next() {
		var update models.CollabUpdate
		err := rows.Scan(
			&update.Seq,
			&update.DocumentID,
			&update.Payload,
			&update.Hash,
			&update.ActorID,
			&update.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan collab update: %w", err)
		}
		updates = append(updates, update)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collab updates: %w", err)
	}

	if updates == nil {
		updates = []models.CollabUpdate{}
	}

	return updates, nil
}

// Compact stores the snapshot and deletes the covered updates. Caller runs
// this inside a transaction so the log and snapshot stay consistent.
func (r *PostgresCollabRepository) Compact(ctx context.Context, snap *models.CollabSnapshot) error {
	upsert := fmt.Sprintf(`
		INSERT INTO %s (document_id, payload, up_to_seq, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE
		SET payload = EXCLUDED.payload, up_to_seq = EXCLUDED.up_to_seq, updated_at = EXCLUDED.updated_at
	`, r.tables.CollabSnapshots)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, upsert, snap.DocumentID, snap.Payload, snap.UpToSeq, snap.UpdatedAt); err != nil {
		return fmt.Errorf("upsert collab snapshot: %w", err)
	}

	prune := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND seq <= $2`, r.tables.CollabUpdates)
	if _, err := executor.Exec(ctx, prune, snap.DocumentID, snap.UpToSeq); err != nil {
		return fmt.Errorf("prune collab updates: %w", err)
	}

	return nil
}

// GetSnapshot returns the latest compacted snapshot
func (r *PostgresCollabRepository) GetSnapshot(ctx context.Context, documentID string) (*models.CollabSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT document_id, payload, up_to_seq, updated_at
		FROM %s
		WHERE document_id = $1
	`, r.tables.CollabSnapshots)

	var snap models.CollabSnapshot
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(
		&snap.DocumentID,
		&snap.Payload,
		&snap.UpToSeq,
		&snap.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("collab snapshot for document %s: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get collab snapshot: %w", err)
	}

	return &snap, nil
}
