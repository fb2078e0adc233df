package repositories

import (
	"context"

	"messagesearch/internal/domain/models"
)

// StateTransition describes one compare-and-swap write against a document.
// The UPDATE only applies when the stored (version, workflow_state) still
// match ExpectedVersion/FromState at write time; otherwise the repository
// returns a *domain.ConflictError and nothing changes.
type StateTransition struct {
	DocumentID      string
	FromState       models.WorkflowState // empty means any state (revert)
	ExpectedVersion int64
	ToState         models.WorkflowState

	// SnapshotID, when non-nil, updates the document's latest-snapshot
	// pointer in the same statement.
	SnapshotID *string

	// Title/LanguageCode, when non-nil, restore content fields (revert).
	Title        *string
	LanguageCode *string
}

// DocumentListOptions filters and paginates document listings.
type DocumentListOptions struct {
	State  models.WorkflowState // empty = all states
	Limit  int
	Offset int
}

// DocumentRepository persists document working copies.
type DocumentRepository interface {
	// Create inserts a new document (paragraphs are stored separately).
	Create(ctx context.Context, doc *models.Document) error

	// GetByID returns the document without its paragraphs.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// List returns a page of documents plus the total matching count.
	List(ctx context.Context, opts DocumentListOptions) ([]models.Document, int, error)

	// Transition applies a version-gated state change. It returns
	// *domain.ConflictError when the guard fails and performs no write.
	Transition(ctx context.Context, t StateTransition) error
}
