package memory

import (
	"context"
	"fmt"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// MemoryCollabRepository implements CollabRepository over a Store.
type MemoryCollabRepository struct {
	store *Store
}

// NewCollabRepository creates an in-memory collaboration repository.
func NewCollabRepository(store *Store) repositories.CollabRepository {
	return &MemoryCollabRepository{store: store}
}

// Append stores an update, deduplicating on (document_id, hash)
func (r *MemoryCollabRepository) Append(ctx context.Context, update *models.CollabUpdate) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[update.DocumentID]; !ok {
		return 0, fmt.Errorf("document %s: %w", update.DocumentID, domain.ErrNotFound)
	}

	for _, existing := range r.store.collabUpdates[update.DocumentID] {
		if existing.Hash == update.Hash {
			update.Seq = existing.Seq
			return existing.Seq, nil
		}
	}

	r.store.collabSeq++
	update.Seq = r.store.collabSeq
	r.store.collabUpdates[update.DocumentID] = append(r.store.collabUpdates[update.DocumentID], *update)
	return update.Seq, nil
}

// List returns updates with seq > sinceSeq in ascending order
func (r *MemoryCollabRepository) List(ctx context.Context, documentID string, sinceSeq int64) ([]models.CollabUpdate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	updates := []models.CollabUpdate{}
	for _, update := range r.store.collabUpdates[documentID] {
		if update.Seq > sinceSeq {
			updates = append(updates, update)
		}
	}
	return updates, nil
}

// Compact stores the snapshot and deletes the covered updates
func (r *MemoryCollabRepository) Compact(ctx context.Context, snap *models.CollabSnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.collabSnapshots[snap.DocumentID] = *snap

	var kept []models.CollabUpdate
	for _, update := range r.store.collabUpdates[snap.DocumentID] {
		if update.Seq > snap.UpToSeq {
			kept = append(kept, update)
		}
	}
	r.store.collabUpdates[snap.DocumentID] = kept
	return nil
}

// GetSnapshot returns the latest compacted snapshot
func (r *MemoryCollabRepository) GetSnapshot(ctx context.Context, documentID string) (*models.CollabSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.collabSnapshots[documentID]
	if !ok {
		return nil, fmt.Errorf("collab snapshot for document %s: %w", documentID, domain.ErrNotFound)
	}
	return &snap, nil
}
