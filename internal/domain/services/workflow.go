package services

import (
	"context"

	"messagesearch/internal/domain/models"
)

// TransitionResult reports one applied workflow transition.
type TransitionResult struct {
	DocumentID string               `json:"documentId"`
	State      models.WorkflowState `json:"state"`
	Version    int64                `json:"version"`
	SnapshotID *string              `json:"snapshotId,omitempty"`
	AuditID    string               `json:"auditId"`
}

// SubmitReviewRequest opens a review cycle on a draft document.
type SubmitReviewRequest struct {
	DocumentID      string
	ExpectedVersion int64
	Summary         string   `json:"summary"`
	Reviewers       []string `json:"reviewers"`
	ActorID         string
}

// ReviewDecisionRequest approves a review or requests changes.
type ReviewDecisionRequest struct {
	DocumentID      string
	ReviewID        string
	ExpectedVersion int64
	Reason          string `json:"reason,omitempty"`
	DiffSummary     string `json:"diffSummary,omitempty"`
	ActorID         string
}

// PublishRequest publishes a document. Force bypasses the in-review guard
// for drafts; the HTTP layer only sets ForceAllowed for admin callers.
type PublishRequest struct {
	DocumentID      string
	ExpectedVersion int64
	Force           bool   `json:"force"`
	Reason          string `json:"reason,omitempty"`
	DiffSummary     string `json:"diffSummary,omitempty"`
	ActorID         string
	ForceAllowed    bool
}

// ArchiveRequest archives a published document.
type ArchiveRequest struct {
	DocumentID      string
	ExpectedVersion int64
	Reason          string `json:"reason"`
	ActorID         string
}

// RevertRequest restores a past snapshot's content into the working copy
// as a new draft.
type RevertRequest struct {
	DocumentID      string
	ExpectedVersion int64
	SnapshotID      string `json:"snapshotId"`
	Reason          string `json:"reason,omitempty"`
	ActorID         string
}

// AddCommentRequest appends a comment to an open review.
type AddCommentRequest struct {
	ReviewID string
	AuthorID string
	Body     string `json:"body"`
}

// WorkflowService owns the document lifecycle state machine. Every
// transition is atomic (document CAS + snapshot + audit commit together) and
// conflict-safe under concurrent callers; guard failures surface as
// *domain.ConflictError with no side effects.
type WorkflowService interface {
	SubmitForReview(ctx context.Context, req *SubmitReviewRequest) (*TransitionResult, *models.ReviewRequest, error)
	ApproveReview(ctx context.Context, req *ReviewDecisionRequest) (*TransitionResult, error)
	RequestChanges(ctx context.Context, req *ReviewDecisionRequest) (*TransitionResult, error)
	Publish(ctx context.Context, req *PublishRequest) (*TransitionResult, error)
	Archive(ctx context.Context, req *ArchiveRequest) (*TransitionResult, error)
	Revert(ctx context.Context, req *RevertRequest) (*TransitionResult, error)
	AddReviewComment(ctx context.Context, req *AddCommentRequest) (*models.ReviewComment, error)
	GetReview(ctx context.Context, reviewID string) (*models.ReviewRequest, []models.ReviewComment, error)
}
