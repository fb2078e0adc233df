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

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, language_code, version, workflow_state, snapshot_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.Title,
		doc.LanguageCode,
		doc.Version,
		doc.WorkflowState,
		doc.SnapshotID,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID (without paragraphs)
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, title, language_code, version, workflow_state, snapshot_id, created_by, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.LanguageCode,
		&doc.Version,
		&doc.WorkflowState,
		&doc.SnapshotID,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// List returns a page of documents plus the total matching count
func (r *PostgresDocumentRepository) List(ctx context.Context, opts repositories.DocumentListOptions) ([]models.Document, int, error) {
	query := fmt.Sprintf(`
		SELECT id, title, language_code, version, workflow_state, snapshot_id, created_by, created_at, updated_at
		FROM %s
	`, r.tables.Documents)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Documents)

	var args []interface{}
	var countArgs []interface{}
	if opts.State != "" {
		query += ` WHERE workflow_state = $1`
		countQuery += ` WHERE workflow_state = $1`
		args = append(args, opts.State)
		countArgs = append(countArgs, opts.State)
	}

	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.LanguageCode,
			&doc.Version,
			&doc.WorkflowState,
			&doc.SnapshotID,
			&doc.CreatedBy,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}

	// Return empty slice instead of nil
	if documents == nil {
		documents = []models.Document{}
	}

	var total int
	if err := executor.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return documents, total, nil
}

// Transition applies a compare-and-swap state change. The single conditional
// UPDATE is the concurrency primitive for the whole workflow engine: only
// one of N concurrent callers with the same expected version sees
// RowsAffected == 1; the rest get a ConflictError and write nothing.
func (r *PostgresDocumentRepository) Transition(ctx context.Context, t repositories.StateTransition) error {
	set := `workflow_state = $1, version = version + 1, updated_at = NOW()`
	args := []interface{}{t.ToState}
	idx := 2

	if t.SnapshotID != nil {
		set += fmt.Sprintf(`, snapshot_id = $%d`, idx)
		args = append(args, *t.SnapshotID)
		idx++
	}
	if t.Title != nil {
		set += fmt.Sprintf(`, title = $%d`, idx)
		args = append(args, *t.Title)
		idx++
	}
	if t.LanguageCode != nil {
		set += fmt.Sprintf(`, language_code = $%d`, idx)
		args = append(args, *t.LanguageCode)
		idx++
	}

	where := fmt.Sprintf(`id = $%d AND version = $%d`, idx, idx+1)
	args = append(args, t.DocumentID, t.ExpectedVersion)
	idx += 2

	if t.FromState != "" {
		where += fmt.Sprintf(` AND workflow_state = $%d`, idx)
		args = append(args, t.FromState)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s`, r.tables.Documents, set, where)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition document: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing document from a stale version so the API
		// can answer 404 vs 409. The extra read runs inside the same
		// transaction, so it cannot race the CAS it explains.
		if _, err := r.GetByID(ctx, t.DocumentID); err != nil {
			return err
		}
		return &domain.ConflictError{
			Message:         fmt.Sprintf("document %s: version/state conflict", t.DocumentID),
			DocumentID:      t.DocumentID,
			ExpectedVersion: t.ExpectedVersion,
		}
	}

	return nil
}
