package repositories

import (
	"context"

	"messagesearch/internal/domain/models"
)

// SnapshotRepository appends and reads immutable content snapshots.
// There is no update or delete: the ledger is append-only and the
// UNIQUE(document_id, version) constraint backs the exactly-once guarantee.
type SnapshotRepository interface {
	Create(ctx context.Context, snap *models.Snapshot) error
	GetByID(ctx context.Context, id string) (*models.Snapshot, error)

	// ListByDocument returns snapshots newest first.
	ListByDocument(ctx context.Context, documentID string) ([]models.Snapshot, error)
}

// AuditRepository appends and reads immutable transition records.
type AuditRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error

	// ListByDocument returns audit events newest first.
	ListByDocument(ctx context.Context, documentID string) ([]models.AuditEvent, error)
}
