package services

import (
	"context"

	"messagesearch/internal/domain/models"
)

// AppendUpdateRequest appends one opaque CRDT update to a document's log.
type AppendUpdateRequest struct {
	DocumentID string
	Payload    []byte
	ActorID    string
}

// CompactRequest replaces the update log prefix with a compacted snapshot.
type CompactRequest struct {
	DocumentID string
	Payload    []byte
	UpToSeq    int64
}

// CollabService is the collaboration boundary: append-only update log plus
// snapshot compaction. Payloads are uninterpreted bytes end to end.
type CollabService interface {
	Append(ctx context.Context, req *AppendUpdateRequest) (*models.CollabUpdate, error)
	List(ctx context.Context, documentID string, sinceSeq int64) ([]models.CollabUpdate, error)
	Compact(ctx context.Context, req *CompactRequest) (*models.CollabSnapshot, error)
	GetSnapshot(ctx context.Context, documentID string) (*models.CollabSnapshot, error)
}
