package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// PostgresAuditRepository implements the AuditRepository interface.
// Audit events are append-only.
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(config *RepositoryConfig) repositories.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends an audit event
func (r *PostgresAuditRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, actor_id, action, reason, from_state, to_state, snapshot_id, diff_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.AuditEvents)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		event.ID,
		event.DocumentID,
		event.ActorID,
		event.Action,
		event.Reason,
		event.FromState,
		event.ToState,
		event.SnapshotID,
		event.DiffSummary,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("create audit event: %w", err)
	}

	return nil
}

// ListByDocument returns audit events newest first
func (r *PostgresAuditRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AuditEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, actor_id, action, reason, from_state, to_state, snapshot_id, diff_summary, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`, r.tables.AuditEvents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var event models.AuditEvent
		err := rows.Scan(
			&event.ID,
			&event.DocumentID,
			&event.ActorID,
			&event.Action,
			&event.Reason,
			&event.FromState,
			&event.ToState,
			&event.SnapshotID,
			&event.DiffSummary,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	if events == nil {
		events = []models.AuditEvent{}
	}

	return events, nil
}
