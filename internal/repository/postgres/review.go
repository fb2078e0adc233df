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

// PostgresReviewRepository implements the ReviewRepository interface
type PostgresReviewRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(config *RepositoryConfig) repositories.ReviewRepository {
	return &PostgresReviewRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new review request
func (r *PostgresReviewRepository) Create(ctx context.Context, review *models.ReviewRequest) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, status, summary, reviewers, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Reviews)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		review.ID,
		review.DocumentID,
		review.Status,
		review.Summary,
		review.Reviewers,
		review.CreatedBy,
		review.CreatedAt,
		review.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review request by ID
func (r *PostgresReviewRepository) GetByID(ctx context.Context, id string) (*models.ReviewRequest, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, status, summary, reviewers, created_by, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Reviews)

	var review models.ReviewRequest
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.DocumentID,
		&review.Status,
		&review.Summary,
		&review.Reviewers,
		&review.CreatedBy,
		&review.CreatedAt,
		&review.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &review, nil
}

// UpdateStatus moves a review to a new status
func (r *PostgresReviewRepository) UpdateStatus(ctx context.Context, id string, status models.ReviewStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Reviews)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// AddComment appends a review comment
func (r *PostgresReviewRepository) AddComment(ctx context.Context, comment *models.ReviewComment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, review_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.ReviewComments)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		comment.ID,
		comment.ReviewID,
		comment.AuthorID,
		comment.Body,
		comment.CreatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("review %s: %w", comment.ReviewID, domain.ErrNotFound)
		}
		return fmt.Errorf("add review comment: %w", err)
	}

	return nil
}

// ListComments returns a review's comments oldest first
func (r *PostgresReviewRepository) ListComments(ctx context.Context, reviewID string) ([]models.ReviewComment, error) {
	query := fmt.Sprintf(`
		SELECT id, review_id, author_id, body, created_at
		FROM %s
		WHERE review_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.ReviewComments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review comments: %w", err)
	}
	defer rows.Close()

	var comments []models.ReviewComment
	for rows.Next() {
		var comment models.ReviewComment
		err := rows.Scan(
			&comment.ID,
			&comment.ReviewID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review comments: %w", err)
	}

	if comments == nil {
		comments = []models.ReviewComment{}
	}

	return comments, nil
}
