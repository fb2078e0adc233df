package repositories

import (
	"context"

	"messagesearch/internal/domain/models"
)

// CollabRepository stores opaque CRDT payloads for real-time collaboration:
// an append-only update log per document plus a compacted snapshot. The core
// never inspects payload bytes.
type CollabRepository interface {
	// Append stores an update and returns its sequence number. A payload
	// whose hash already exists for the document is not stored again; the
	// existing sequence is returned instead.
	Append(ctx context.Context, update *models.CollabUpdate) (int64, error)

	// List returns updates with seq > sinceSeq in ascending order.
	List(ctx context.Context, documentID string, sinceSeq int64) ([]models.CollabUpdate, error)

	// Compact stores the snapshot and deletes updates with seq <= UpToSeq
	// atomically.
	Compact(ctx context.Context, snap *models.CollabSnapshot) error

	// GetSnapshot returns the latest compacted snapshot, or ErrNotFound.
	GetSnapshot(ctx context.Context, documentID string) (*models.CollabSnapshot, error)
}
