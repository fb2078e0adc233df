package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// MemoryDocumentRepository implements DocumentRepository over a Store.
type MemoryDocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates an in-memory document repository.
func NewDocumentRepository(store *Store) repositories.DocumentRepository {
	return &MemoryDocumentRepository{store: store}
}

// Create inserts a new document
func (r *MemoryDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrConflict)
	}

	stored := *doc
	stored.Paragraphs = nil
	r.store.documents[doc.ID] = stored
	return nil
}

// GetByID retrieves a document by ID (without paragraphs)
func (r *MemoryDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.getLocked(id)
}

func (r *MemoryDocumentRepository) getLocked(id string) (*models.Document, error) {
	doc, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

// List returns a page of documents plus the total matching count
func (r *MemoryDocumentRepository) List(ctx context.Context, opts repositories.DocumentListOptions) ([]models.Document, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []models.Document
	for _, doc := range r.store.documents {
		if opts.State != "" && doc.WorkflowState != opts.State {
			continue
		}
		matched = append(matched, doc)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if opts.Offset >= total {
		return []models.Document{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if opts.Limit <= 0 || end > total {
		end = total
	}
	page := matched[opts.Offset:end]
	if page == nil {
		page = []models.Document{}
	}
	return page, total, nil
}

// Transition applies a compare-and-swap state change under the store mutex,
// matching the single conditional UPDATE semantics of the postgres repository.
func (r *MemoryDocumentRepository) Transition(ctx context.Context, t repositories.StateTransition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, ok := r.store.documents[t.DocumentID]
	if !ok {
		return fmt.Errorf("document %s: %w", t.DocumentID, domain.ErrNotFound)
	}

	if doc.Version != t.ExpectedVersion || (t.FromState != "" && doc.WorkflowState != t.FromState) {
		return &domain.ConflictError{
			Message:         fmt.Sprintf("document %s: version/state conflict", t.DocumentID),
			DocumentID:      t.DocumentID,
			ExpectedVersion: t.ExpectedVersion,
		}
	}

	doc.WorkflowState = t.ToState
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	if t.SnapshotID != nil {
		doc.SnapshotID = t.SnapshotID
	}
	if t.Title != nil {
		doc.Title = *t.Title
	}
	if t.LanguageCode != nil {
		doc.LanguageCode = *t.LanguageCode
	}

	r.store.documents[t.DocumentID] = doc
	return nil
}
