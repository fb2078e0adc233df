// Package memory provides in-memory implementations of the repository
// interfaces for service and handler tests. Semantics mirror the postgres
// package: same error types, same orderings, same compare-and-swap guard.
package memory

import (
	"context"
	"sync"

	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// Store holds all in-memory state behind one mutex. The repositories are
// views onto it, so cross-repository operations (transition + snapshot +
// audit) see a consistent picture even without real transactions.
type Store struct {
	mu sync.Mutex

	documents  map[string]models.Document
	paragraphs map[string]models.Paragraph
	embeddings map[string][]float32
	snapshots  map[string]models.Snapshot
	audits     []models.AuditEvent
	reviews    map[string]models.ReviewRequest
	comments   map[string][]models.ReviewComment

	collabSeq       int64
	collabUpdates   map[string][]models.CollabUpdate
	collabSnapshots map[string]models.CollabSnapshot

	insertSeq int64 // creation order tiebreaker for paragraphs
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		documents:       make(map[string]models.Document),
		paragraphs:      make(map[string]models.Paragraph),
		embeddings:      make(map[string][]float32),
		snapshots:       make(map[string]models.Snapshot),
		reviews:         make(map[string]models.ReviewRequest),
		comments:        make(map[string][]models.ReviewComment),
		collabUpdates:   make(map[string][]models.CollabUpdate),
		collabSnapshots: make(map[string]models.CollabSnapshot),
	}
}

// TransactionManager serializes ExecTx calls under one mutex. There is no
// rollback here, so serialization is what keeps a multi-step sequence
// (guarded read, snapshot, CAS) from interleaving with another transaction
// and leaving partial writes behind after a late CAS failure.
type TransactionManager struct {
	mu sync.Mutex
}

// NewTransactionManager creates a serializing transaction manager.
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// ExecTx runs fn while holding the transaction mutex.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return fn(ctx)
}
