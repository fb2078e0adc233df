package repositories

import (
	"context"

	"messagesearch/internal/domain/models"
)

// LexicalQuery parameterizes the full-text leg of a hybrid search.
type LexicalQuery struct {
	Query        string
	FTSConfig    string // Postgres text search configuration, e.g. "english"
	LanguageCode string // optional BCP 47 filter; empty = all languages
	Pool         int    // candidate pool bound
}

// VectorQuery parameterizes the nearest-neighbor leg of a hybrid search.
type VectorQuery struct {
	Embedding    []float32
	LanguageCode string // optional BCP 47 filter; empty = all languages
	Pool         int    // top-K candidate pool, independent of page size
}

// ParagraphRepository persists ordered, language-tagged paragraphs and
// serves both search legs. The embedding column is fed by the backfill
// worker; rows without embeddings simply never appear in the vector leg.
type ParagraphRepository interface {
	// CreateBatch inserts paragraphs for a document.
	CreateBatch(ctx context.Context, paragraphs []models.Paragraph) error

	// ListByDocument returns the document's paragraphs ordered by position.
	ListByDocument(ctx context.Context, documentID string) ([]models.Paragraph, error)

	// ReplaceForDocument deletes the document's paragraphs and inserts the
	// given set. Used by revert, inside the transition transaction.
	ReplaceForDocument(ctx context.Context, documentID string, paragraphs []models.Paragraph) error

	// LexicalSearch returns ranked full-text matches with headline snippets.
	LexicalSearch(ctx context.Context, q LexicalQuery) ([]models.ParagraphHit, error)

	// VectorSearch returns the top-K paragraphs by cosine similarity.
	VectorSearch(ctx context.Context, q VectorQuery) ([]models.ParagraphHit, error)

	// ListMissingEmbeddings returns paragraphs without a stored vector,
	// oldest first, for the backfill worker.
	ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Paragraph, error)

	// SetEmbedding upserts the vector for one paragraph.
	SetEmbedding(ctx context.Context, paragraphID string, embedding []float32) error
}
