package memory

import (
	"context"
	"fmt"
	"sort"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// MemorySnapshotRepository implements SnapshotRepository over a Store.
type MemorySnapshotRepository struct {
	store *Store
}

// NewSnapshotRepository creates an in-memory snapshot repository.
func NewSnapshotRepository(store *Store) repositories.SnapshotRepository {
	return &MemorySnapshotRepository{store: store}
}

// Create appends a snapshot, enforcing UNIQUE(document_id, version)
func (r *MemorySnapshotRepository) Create(ctx context.Context, snap *models.Snapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.snapshots {
		if existing.DocumentID == snap.DocumentID && existing.Version == snap.Version {
			return fmt.Errorf("snapshot for document %s version %d already exists: %w",
				snap.DocumentID, snap.Version, domain.ErrConflict)
		}
	}
	r.store.snapshots[snap.ID] = *snap
	return nil
}

// GetByID retrieves a snapshot by ID
func (r *MemorySnapshotRepository) GetByID(ctx context.Context, id string) (*models.Snapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	return &snap, nil
}

// ListByDocument returns snapshots newest first
func (r *MemorySnapshotRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Snapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snapshots := []models.Snapshot{}
	for _, snap := range r.store.snapshots {
		if snap.DocumentID == documentID {
			snapshots = append(snapshots, snap)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Version > snapshots[j].Version
	})
	return snapshots, nil
}

// MemoryAuditRepository implements AuditRepository over a Store.
type MemoryAuditRepository struct {
	store *Store
}

// NewAuditRepository creates an in-memory audit repository.
func NewAuditRepository(store *Store) repositories.AuditRepository {
	return &MemoryAuditRepository{store: store}
}

// Create appends an audit event
func (r *MemoryAuditRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.audits = append(r.store.audits, *event)
	return nil
}

// ListByDocument returns audit events newest first
func (r *MemoryAuditRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AuditEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	events := []models.AuditEvent{}
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		if r.store.audits[i].DocumentID == documentID {
			events = append(events, r.store.audits[i])
		}
	}
	return events, nil
}
