package models

import (
	"time"
)

// SnapshotState is the workflow state a snapshot was captured in.
// Only publish and archive transitions emit snapshots, so the enum is closed
// over those two states.
type SnapshotState string

const (
	SnapshotPublished SnapshotState = "published"
	SnapshotArchived  SnapshotState = "archived"
)

// Snapshot is an immutable point-in-time copy of a document's content,
// created exactly once per publish/archive transition in the same
// transaction as the version bump. Never mutated or deleted.
// (DocumentID, Version) is unique.
type Snapshot struct {
	ID           string        `json:"id"`
	DocumentID   string        `json:"documentId"`
	Version      int64         `json:"version"` // document version at capture time
	State        SnapshotState `json:"state"`
	Title        string        `json:"title"`
	Body         string        `json:"body"` // paragraph bodies joined by blank lines
	LanguageCode string        `json:"languageCode"`
	CreatedBy    string        `json:"createdBy"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditAction identifies a workflow transition in the audit ledger.
type AuditAction string

const (
	ActionDraftCreated    AuditAction = "draft.created"
	ActionReviewSubmitted AuditAction = "review.submitted"
	ActionReviewApproved  AuditAction = "review.approved"
	ActionReviewRejected  AuditAction = "review.rejected"
	ActionPublish         AuditAction = "publish"
	ActionArchive         AuditAction = "archive"
	ActionRevert          AuditAction = "revert"
	ActionForcePublish    AuditAction = "force_publish"
)

// RequiresReason reports whether the action must carry a non-empty reason.
func (a AuditAction) RequiresReason() bool {
	switch a {
	case ActionPublish, ActionArchive, ActionForcePublish:
		return true
	}
	return false
}

// AuditEvent is an immutable record of a single state transition: who did it,
// why, and which snapshot (if any) the transition produced or read.
// Append-only; exactly one event exists per successful transition.
type AuditEvent struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"documentId"`
	ActorID     string        `json:"actorId"`
	Action      AuditAction   `json:"action"`
	Reason      string        `json:"reason,omitempty"`
	FromState   WorkflowState `json:"fromState"`
	ToState     WorkflowState `json:"toState"`
	SnapshotID  *string       `json:"snapshotId,omitempty"`
	DiffSummary string        `json:"diffSummary,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}
