package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// PostgresParagraphRepository implements the ParagraphRepository interface.
// The lexical leg uses PostgreSQL full-text search (ts_rank over a weighted
// heading+body vector, ts_headline snippets); the vector leg uses pgvector
// cosine distance over the embedding column.
type PostgresParagraphRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewParagraphRepository creates a new paragraph repository
func NewParagraphRepository(config *RepositoryConfig) repositories.ParagraphRepository {
	return &PostgresParagraphRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateBatch inserts paragraphs for a document
func (r *PostgresParagraphRepository) CreateBatch(ctx context.Context, paragraphs []models.Paragraph) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, position, heading, body, language_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Paragraphs)

	executor := GetExecutor(ctx, r.pool)
	for i := range paragraphs {
		p := &paragraphs[i]
		_, err := executor.Exec(ctx, query,
			p.ID,
			p.DocumentID,
			p.Position,
			p.Heading,
			p.Body,
			p.LanguageCode,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			if IsPgDuplicateError(err) {
				return fmt.Errorf("paragraph position %d already exists for document %s: %w",
					p.Position, p.DocumentID, domain.ErrConflict)
			}
			return fmt.Errorf("create paragraph: %w", err)
		}
	}

	return nil
}

// ListByDocument returns the document's paragraphs ordered by position
func (r *PostgresParagraphRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Paragraph, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, position, heading, body, language_code, embedding IS NOT NULL, created_at, updated_at
		FROM %s
		WHERE document_id = $1
		ORDER BY position ASC
	`, r.tables.Paragraphs)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list paragraphs: %w", err)
	}
	defer rows.Close()

	var paragraphs []models.Paragraph
	for rows.Next() {
		var p models.Paragraph
		err := rows.Scan(
			&p.ID,
			&p.DocumentID,
			&p.Position,
			&p.Heading,
			&p.Body,
			&p.LanguageCode,
			&p.HasEmbedding,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		paragraphs = append(paragraphs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paragraphs: %w", err)
	}

	if paragraphs == nil {
		paragraphs = []models.Paragraph{}
	}

	return paragraphs, nil
}

// ReplaceForDocument swaps the document's paragraph set. Runs inside the
// caller's transaction; revert depends on that.
func (r *PostgresParagraphRepository) ReplaceForDocument(ctx context.Context, documentID string, paragraphs []models.Paragraph) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Paragraphs)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete paragraphs: %w", err)
	}

	return r.CreateBatch(ctx, paragraphs)
}

// LexicalSearch implements the full-text leg.
//
// PostgreSQL full-text search components:
//   - to_tsvector(config, field): converts a field to searchable tokens
//   - websearch_to_tsquery(config, query): Google-like query syntax
//   - setweight(..., 'A'|'B'): heading matches rank above body matches
//   - ts_rank(): relevance score (higher = better)
//   - ts_headline(): excerpt around the matched terms
func (r *PostgresParagraphRepository) LexicalSearch(ctx context.Context, q repositories.LexicalQuery) ([]models.ParagraphHit, error) {
	tsvector := `setweight(to_tsvector($1, coalesce(p.heading, '')), 'A') || setweight(to_tsvector($1, p.body), 'B')`

	query := fmt.Sprintf(`
		SELECT p.id, p.document_id, d.snapshot_id, p.language_code, d.title, p.heading, p.body,
		       ts_headline($1, p.body, websearch_to_tsquery($1, $2),
		                   'MaxWords=40, MinWords=15, MaxFragments=1') AS snippet,
		       ts_rank(%s, websearch_to_tsquery($1, $2)) AS score
		FROM %s p
		JOIN %s d ON d.id = p.document_id
		WHERE (%s) @@ websearch_to_tsquery($1, $2)
	`, tsvector, r.tables.Paragraphs, r.tables.Documents, tsvector)

	args := []interface{}{q.FTSConfig, q.Query}
	if q.LanguageCode != "" {
		query += ` AND p.language_code = $3`
		args = append(args, q.LanguageCode)
	}

	// Deterministic ordering: ties on score break on (document, paragraph)
	// so pagination stays reproducible.
	query += fmt.Sprintf(` ORDER BY score DESC, p.document_id ASC, p.id ASC LIMIT $%d`, len(args)+1)
	args = append(args, q.Pool)

	return r.queryHits(ctx, query, args, true)
}

// VectorSearch implements the nearest-neighbor leg. Cosine similarity is
// 1 - cosine distance, clamped at 0; the candidate pool bound applies to the
// index scan, independent of the requested page size.
func (r *PostgresParagraphRepository) VectorSearch(ctx context.Context, q repositories.VectorQuery) ([]models.ParagraphHit, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.document_id, d.snapshot_id, p.language_code, d.title, p.heading, p.body,
		       GREATEST(0, 1 - (p.embedding <=> $1))::float8 AS score
		FROM %s p
		JOIN %s d ON d.id = p.document_id
		WHERE p.embedding IS NOT NULL
	`, r.tables.Paragraphs, r.tables.Documents)

	args := []interface{}{pgvector.NewVector(q.Embedding)}
	if q.LanguageCode != "" {
		query += ` AND p.language_code = $2`
		args = append(args, q.LanguageCode)
	}

	query += fmt.Sprintf(` ORDER BY p.embedding <=> $1, p.document_id ASC, p.id ASC LIMIT $%d`, len(args)+1)
	args = append(args, q.Pool)

	return r.queryHits(ctx, query, args, false)
}

// queryHits scans search rows shared by both legs.
func (r *PostgresParagraphRepository) queryHits(ctx context.Context, query string, args []interface{}, withSnippet bool) ([]models.ParagraphHit, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search paragraphs: %w", err)
	}
	defer rows.Close()

	var hits []models.ParagraphHit
	for rows.Next() {
		var h models.ParagraphHit
		dest := []interface{}{
			&h.ParagraphID,
			&h.DocumentID,
			&h.SnapshotID,
			&h.LanguageCode,
			&h.Title,
			&h.Heading,
			&h.Body,
		}
		if withSnippet {
			dest = append(dest, &h.Snippet)
		}
		dest = append(dest, &h.Score)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}

	if hits == nil {
		hits = []models.ParagraphHit{}
	}

	return hits, nil
}

// ListMissingEmbeddings returns paragraphs without a stored vector, oldest
// first, for the backfill worker
func (r *PostgresParagraphRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Paragraph, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, position, heading, body, language_code, false, created_at, updated_at
		FROM %s
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, r.tables.Paragraphs)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list missing embeddings: %w", err)
	}
	defer rows.Close()

	var paragraphs []models.Paragraph
	for rows.Next() {
		var p models.Paragraph
		err := rows.Scan(
			&p.ID,
			&p.DocumentID,
			&p.Position,
			&p.Heading,
			&p.Body,
			&p.LanguageCode,
			&p.HasEmbedding,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		paragraphs = append(paragraphs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paragraphs: %w", err)
	}

	return paragraphs, nil
}

// SetEmbedding upserts the vector for one paragraph
func (r *PostgresParagraphRepository) SetEmbedding(ctx context.Context, paragraphID string, embedding []float32) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET embedding = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Paragraphs)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, pgvector.NewVector(embedding), paragraphID)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("paragraph %s: %w", paragraphID, domain.ErrNotFound)
	}

	return nil
}
