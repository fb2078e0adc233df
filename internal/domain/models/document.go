package models

import (
	"time"
)

// WorkflowState is the editorial lifecycle state of a document.
type WorkflowState string

const (
	StateDraft     WorkflowState = "draft"
	StateInReview  WorkflowState = "in_review"
	StatePublished WorkflowState = "published"
	StateArchived  WorkflowState = "archived"
)

// Valid reports whether s is one of the known workflow states.
func (s WorkflowState) Valid() bool {
	switch s {
	case StateDraft, StateInReview, StatePublished, StateArchived:
		return true
	}
	return false
}

// Document is the mutable working copy of a multilingual document.
// Version is bumped by exactly one on every successful workflow transition;
// all transitions are guarded by a compare-and-swap on (id, version).
type Document struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	LanguageCode  string        `json:"languageCode"`
	Version       int64         `json:"version"`
	WorkflowState WorkflowState `json:"workflowState"`
	SnapshotID    *string       `json:"snapshotId,omitempty"` // latest published/archived snapshot
	CreatedBy     string        `json:"createdBy"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	// Paragraphs is populated on reads that request content; list endpoints
	// leave it nil.
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
}

// Paragraph is the atomic unit for search ranking and collaboration scoping.
// (DocumentID, LanguageCode, Position) is unique.
type Paragraph struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	Position     int       `json:"position"`
	Heading      *string   `json:"heading,omitempty"`
	Body         string    `json:"body"`
	LanguageCode string    `json:"languageCode"`
	HasEmbedding bool      `json:"-"` // set by the store, drives the backfill worker
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
