package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// MemoryParagraphRepository implements ParagraphRepository over a Store.
// The search legs use naive token overlap and exact cosine similarity in
// place of Postgres FTS and ivfflat, with the same ordering contract:
// score descending, then (document_id, paragraph_id) ascending.
type MemoryParagraphRepository struct {
	store *Store
}

// NewParagraphRepository creates an in-memory paragraph repository.
func NewParagraphRepository(store *Store) repositories.ParagraphRepository {
	return &MemoryParagraphRepository{store: store}
}

// CreateBatch inserts paragraphs for a document
func (r *MemoryParagraphRepository) CreateBatch(ctx context.Context, paragraphs []models.Paragraph) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.createBatchLocked(paragraphs)
}

func (r *MemoryParagraphRepository) createBatchLocked(paragraphs []models.Paragraph) error {
	for _, p := range paragraphs {
		if _, ok := r.store.paragraphs[p.ID]; ok {
			return fmt.Errorf("paragraph %s: %w", p.ID, domain.ErrConflict)
		}
		for _, existing := range r.store.paragraphs {
			if existing.DocumentID == p.DocumentID &&
				existing.LanguageCode == p.LanguageCode &&
				existing.Position == p.Position {
				return fmt.Errorf("paragraph position %d for document %s: %w",
					p.Position, p.DocumentID, domain.ErrConflict)
			}
		}
	}
	for _, p := range paragraphs {
		r.store.insertSeq++
		r.store.paragraphs[p.ID] = p
	}
	return nil
}

// ListByDocument returns the document's paragraphs ordered by position
func (r *MemoryParagraphRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Paragraph, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	paragraphs := []models.Paragraph{}
	for _, p := range r.store.paragraphs {
		if p.DocumentID != documentID {
			continue
		}
		_, hasEmbedding := r.store.embeddings[p.ID]
		p.HasEmbedding = hasEmbedding
		paragraphs = append(paragraphs, p)
	}

	sort.Slice(paragraphs, func(i, j int) bool {
		if paragraphs[i].LanguageCode != paragraphs[j].LanguageCode {
			return paragraphs[i].LanguageCode < paragraphs[j].LanguageCode
		}
		return paragraphs[i].Position < paragraphs[j].Position
	})

	return paragraphs, nil
}

// ReplaceForDocument deletes the document's paragraphs and inserts the given set
func (r *MemoryParagraphRepository) ReplaceForDocument(ctx context.Context, documentID string, paragraphs []models.Paragraph) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, p := range r.store.paragraphs {
		if p.DocumentID == documentID {
			delete(r.store.paragraphs, id)
			delete(r.store.embeddings, id)
		}
	}

	return r.createBatchLocked(paragraphs)
}

// LexicalSearch ranks paragraphs by query token overlap. Heading matches
// weigh double, mirroring the setweight('A'/'B') ranking in postgres.
func (r *MemoryParagraphRepository) LexicalSearch(ctx context.Context, q repositories.LexicalQuery) ([]models.ParagraphHit, error) {
	queryTokens := tokenize(q.Query)
	if len(queryTokens) == 0 {
		return []models.ParagraphHit{}, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hits := []models.ParagraphHit{}
	for _, p := range r.store.paragraphs {
		if q.LanguageCode != "" && p.LanguageCode != q.LanguageCode {
			continue
		}

		bodyTokens := tokenSet(p.Body)
		headingTokens := map[string]bool{}
		if p.Heading != nil {
			headingTokens = tokenSet(*p.Heading)
		}

		var weighted float64
		for _, tok := range queryTokens {
			if headingTokens[tok] {
				weighted += 2
			} else if bodyTokens[tok] {
				weighted += 1
			}
		}
		if weighted == 0 {
			continue
		}

		doc, ok := r.store.documents[p.DocumentID]
		if !ok {
			continue
		}

		hits = append(hits, models.ParagraphHit{
			DocumentID:   p.DocumentID,
			ParagraphID:  p.ID,
			SnapshotID:   doc.SnapshotID,
			LanguageCode: p.LanguageCode,
			Title:        doc.Title,
			Heading:      p.Heading,
			Body:         p.Body,
			Snippet:      excerpt(p.Body, queryTokens),
			Score:        weighted / (2 * float64(len(queryTokens))),
		})
	}

	sortHits(hits)
	if q.Pool > 0 && len(hits) > q.Pool {
		hits = hits[:q.Pool]
	}
	return hits, nil
}

// VectorSearch returns the top-K paragraphs by cosine similarity
func (r *MemoryParagraphRepository) VectorSearch(ctx context.Context, q repositories.VectorQuery) ([]models.ParagraphHit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hits := []models.ParagraphHit{}
	for _, p := range r.store.paragraphs {
		if q.LanguageCode != "" && p.LanguageCode != q.LanguageCode {
			continue
		}
		embedding, ok := r.store.embeddings[p.ID]
		if !ok {
			continue
		}
		doc, ok := r.store.documents[p.DocumentID]
		if !ok {
			continue
		}

		score := cosineSimilarity(q.Embedding, embedding)
		if score < 0 {
			score = 0
		}

		hits = append(hits, models.ParagraphHit{
			DocumentID:   p.DocumentID,
			ParagraphID:  p.ID,
			SnapshotID:   doc.SnapshotID,
			LanguageCode: p.LanguageCode,
			Title:        doc.Title,
			Heading:      p.Heading,
			Body:         p.Body,
			Score:        score,
		})
	}

	sortHits(hits)
	if q.Pool > 0 && len(hits) > q.Pool {
		hits = hits[:q.Pool]
	}
	return hits, nil
}

// ListMissingEmbeddings returns paragraphs without a stored vector, oldest first
func (r *MemoryParagraphRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Paragraph, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	missing := []models.Paragraph{}
	for _, p := range r.store.paragraphs {
		if _, ok := r.store.embeddings[p.ID]; !ok {
			missing = append(missing, p)
		}
	}

	sort.Slice(missing, func(i, j int) bool {
		if !missing[i].CreatedAt.Equal(missing[j].CreatedAt) {
			return missing[i].CreatedAt.Before(missing[j].CreatedAt)
		}
		return missing[i].ID < missing[j].ID
	})

	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}
	return missing, nil
}

// SetEmbedding upserts the vector for one paragraph
func (r *MemoryParagraphRepository) SetEmbedding(ctx context.Context, paragraphID string, embedding []float32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.paragraphs[paragraphID]; !ok {
		return fmt.Errorf("paragraph %s: %w", paragraphID, domain.ErrNotFound)
	}
	stored := make([]float32, len(embedding))
	copy(stored, embedding)
	r.store.embeddings[paragraphID] = stored
	return nil
}

func sortHits(hits []models.ParagraphHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ParagraphID < hits[j].ParagraphID
	})
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(s) {
		set[tok] = true
	}
	return set
}

// excerpt builds a short window around the first query-token match,
// approximating ts_headline.
func excerpt(body string, queryTokens []string) string {
	want := make(map[string]bool, len(queryTokens))
	for _, tok := range queryTokens {
		want[tok] = true
	}

	words := strings.Fields(body)
	start := 0
	for i, w := range words {
		if want[strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))] {
			start = i - 5
			if start < 0 {
				start = 0
			}
			break
		}
	}

	end := start + 40
	if end > len(words) {
		end = len(words)
	}
	return strings.Join(words[start:end], " ")
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
