// Package collab is the collaboration boundary: an append-only log of opaque
// CRDT updates per document plus snapshot compaction. Payload bytes are never
// decoded or merged here; clients own the CRDT semantics.
package collab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"messagesearch/internal/config"
	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
)

// collabService implements the CollabService interface
type collabService struct {
	collabRepo repositories.CollabRepository
	docRepo    repositories.DocumentRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewService creates a new collaboration service.
func NewService(
	collabRepo repositories.CollabRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.CollabService {
	return &collabService{
		collabRepo: collabRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// Append stores one update. Identical payloads for the same document
// deduplicate on the SHA-256 hash and return the existing sequence number.
func (s *collabService) Append(ctx context.Context, req *services.AppendUpdateRequest) (*models.CollabUpdate, error) {
	if len(req.Payload) == 0 {
		return nil, fmt.Errorf("%w: update payload cannot be empty", domain.ErrValidation)
	}
	if len(req.Payload) > config.MaxCollabPayload {
		return nil, fmt.Errorf("%w: update payload exceeds %d bytes", domain.ErrValidation, config.MaxCollabPayload)
	}

	sum := sha256.Sum256(req.Payload)
	update := &models.CollabUpdate{
		DocumentID: req.DocumentID,
		Payload:    req.Payload,
		Hash:       hex.EncodeToString(sum[:]),
		ActorID:    req.ActorID,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.collabRepo.Append(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// List returns updates with seq > sinceSeq in ascending order.
func (s *collabService) List(ctx context.Context, documentID string, sinceSeq int64) ([]models.CollabUpdate, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.collabRepo.List(ctx, documentID, sinceSeq)
}

// Compact replaces the log prefix up to UpToSeq with the given snapshot.
// The upsert and the prune run in one transaction.
func (s *collabService) Compact(ctx context.Context, req *services.CompactRequest) (*models.CollabSnapshot, error) {
	if len(req.Payload) == 0 {
		return nil, fmt.Errorf("%w: snapshot payload cannot be empty", domain.ErrValidation)
	}
	if req.UpToSeq <= 0 {
		return nil, fmt.Errorf("%w: upToSeq must be positive", domain.ErrValidation)
	}
	if _, err := s.docRepo.GetByID(ctx, req.DocumentID); err != nil {
		return nil, err
	}

	snap := &models.CollabSnapshot{
		DocumentID: req.DocumentID,
		Payload:    req.Payload,
		UpToSeq:    req.UpToSeq,
		UpdatedAt:  time.Now().UTC(),
	}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.collabRepo.Compact(txCtx, snap)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("collab log compacted", "document_id", req.DocumentID, "up_to_seq", req.UpToSeq)
	return snap, nil
}

// GetSnapshot returns the latest compacted snapshot.
func (s *collabService) GetSnapshot(ctx context.Context, documentID string) (*models.CollabSnapshot, error) {
	return s.collabRepo.GetSnapshot(ctx, documentID)
}
