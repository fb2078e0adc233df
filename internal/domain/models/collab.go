package models

import (
	"time"
)

// CollabUpdate is one append-only CRDT update for a document. The payload is
// an opaque binary blob; the core never decodes or merges it. The SHA-256
// hash deduplicates client retries: appending an identical payload for the
// same document is a no-op that returns the existing sequence number.
type CollabUpdate struct {
	Seq        int64     `json:"seq"`
	DocumentID string    `json:"documentId"`
	Payload    []byte    `json:"payload"`
	Hash       string    `json:"-"` // hex SHA-256 of Payload
	ActorID    string    `json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CollabSnapshot is a compacted CRDT snapshot for a document. UpToSeq is the
// watermark: updates with seq <= UpToSeq were folded into the snapshot and
// deleted in the same transaction.
type CollabSnapshot struct {
	DocumentID string    `json:"documentId"`
	Payload    []byte    `json:"payload"`
	UpToSeq    int64     `json:"upToSeq"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
