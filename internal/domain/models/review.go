package models

import (
	"time"
)

// ReviewStatus is the lifecycle state of a review request.
type ReviewStatus string

const (
	ReviewInReview         ReviewStatus = "in_review"
	ReviewChangesRequested ReviewStatus = "changes_requested"
	ReviewApproved         ReviewStatus = "approved"
)

// ReviewRequest tracks a single review cycle for a document. At most one
// review is open per document at a time; the Draft-only submit guard in the
// workflow engine enforces this without a separate constraint.
type ReviewRequest struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"documentId"`
	Status     ReviewStatus `json:"status"`
	Summary    string       `json:"summary"`
	Reviewers  []string     `json:"reviewers"`
	CreatedBy  string       `json:"createdBy"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// ReviewComment is an append-only comment on a review.
type ReviewComment struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"reviewId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
