package services

import (
	"context"

	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// ParagraphInput is one paragraph in a document create request.
type ParagraphInput struct {
	Position     int     `json:"position"`
	Heading      *string `json:"heading,omitempty"`
	Body         string  `json:"body"`
	LanguageCode string  `json:"languageCode"`
}

// CreateDocumentRequest creates a document with its paragraph set.
// Publish=true publishes immediately: the create and the publish commit in
// one transaction, leaving the document at version 2 with a snapshot.
type CreateDocumentRequest struct {
	Title        string           `json:"title"`
	LanguageCode string           `json:"languageCode"`
	Paragraphs   []ParagraphInput `json:"paragraphs"`
	Publish      bool             `json:"publish"`
	ActorID      string
}

// BatchCreateRequest creates many documents in one call; failures are
// reported per item instead of aborting the batch.
type BatchCreateRequest struct {
	Documents []CreateDocumentRequest `json:"documents"`
	ActorID   string
}

// BatchItemResult reports one item of a batch create.
type BatchItemResult struct {
	Index      int    `json:"index"`
	DocumentID string `json:"documentId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchCreateResult summarizes a batch create.
type BatchCreateResult struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Results []BatchItemResult `json:"results"`
}

// DocumentService handles document creation and reads. Workflow transitions
// live in WorkflowService.
type DocumentService interface {
	Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)
	CreateBatch(ctx context.Context, req *BatchCreateRequest) (*BatchCreateResult, error)

	// Get returns the document with paragraphs. When snapshotID is
	// non-empty the returned content is rendered from that snapshot
	// instead of the working copy.
	Get(ctx context.Context, id, snapshotID string) (*models.Document, error)

	List(ctx context.Context, opts repositories.DocumentListOptions) ([]models.Document, int, error)
	ListSnapshots(ctx context.Context, documentID string) ([]models.Snapshot, error)
	ListAudit(ctx context.Context, documentID string) ([]models.AuditEvent, error)
}
