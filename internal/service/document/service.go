// Package document handles document creation and reads. Workflow
// transitions live in the workflow package; this one owns the initial
// draft.created (and optional immediate publish) plus all read paths.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"messagesearch/internal/config"
	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/searchcfg"
	"messagesearch/internal/service/workflow"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo       repositories.DocumentRepository
	paragraphRepo repositories.ParagraphRepository
	snapshotRepo  repositories.SnapshotRepository
	auditRepo     repositories.AuditRepository
	txManager     repositories.TransactionManager
	logger        *slog.Logger
}

// NewService creates a new document service.
func NewService(
	docRepo repositories.DocumentRepository,
	paragraphRepo repositories.ParagraphRepository,
	snapshotRepo repositories.SnapshotRepository,
	auditRepo repositories.AuditRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:       docRepo,
		paragraphRepo: paragraphRepo,
		snapshotRepo:  snapshotRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// Create inserts a document with its paragraphs. Publish=true additionally
// publishes in the same transaction: the document lands at version 2 in
// Published with a snapshot and two audit events (draft.created + publish).
func (s *documentService) Create(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:            uuid.NewString(),
		Title:         req.Title,
		LanguageCode:  req.LanguageCode,
		Version:       1,
		WorkflowState: models.StateDraft,
		CreatedBy:     req.ActorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	paragraphs := make([]models.Paragraph, len(req.Paragraphs))
	for i, input := range req.Paragraphs {
		// Empty paragraph language inherits the document language.
		if input.LanguageCode == "" {
			input.LanguageCode = req.LanguageCode
		}
		paragraphs[i] = models.Paragraph{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID,
			Position:     input.Position,
			Heading:      input.Heading,
			Body:         input.Body,
			LanguageCode: input.LanguageCode,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}
		if err := s.paragraphRepo.CreateBatch(txCtx, paragraphs); err != nil {
			return err
		}
		if _, err := s.writeAudit(txCtx, doc.ID, req.ActorID, models.ActionDraftCreated,
			"", models.StateDraft, models.StateDraft, nil); err != nil {
			return err
		}

		if !req.Publish {
			return nil
		}

		snap := &models.Snapshot{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID,
			Version:      2,
			State:        models.SnapshotPublished,
			Title:        doc.Title,
			Body:         workflow.JoinBodies(paragraphs),
			LanguageCode: doc.LanguageCode,
			CreatedBy:    req.ActorID,
			CreatedAt:    now,
		}
		if err := s.snapshotRepo.Create(txCtx, snap); err != nil {
			return err
		}
		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      doc.ID,
			FromState:       models.StateDraft,
			ExpectedVersion: 1,
			ToState:         models.StatePublished,
			SnapshotID:      &snap.ID,
		}); err != nil {
			return err
		}
		if _, err := s.writeAudit(txCtx, doc.ID, req.ActorID, models.ActionPublish,
			"published on create", models.StateDraft, models.StatePublished, &snap.ID); err != nil {
			return err
		}

		doc.Version = 2
		doc.WorkflowState = models.StatePublished
		doc.SnapshotID = &snap.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc.Paragraphs = paragraphs
	return doc, nil
}

// CreateBatch creates many documents, reporting failures per item. A failed
// item never aborts the rest of the batch.
func (s *documentService) CreateBatch(ctx context.Context, req *services.BatchCreateRequest) (*services.BatchCreateResult, error) {
	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("%w: batch must contain at least one document", domain.ErrValidation)
	}
	if len(req.Documents) > config.MaxBatchDocuments {
		return nil, fmt.Errorf("%w: batch exceeds %d documents", domain.ErrValidation, config.MaxBatchDocuments)
	}

	result := &services.BatchCreateResult{
		Results: make([]services.BatchItemResult, 0, len(req.Documents)),
	}
	for i := range req.Documents {
		item := req.Documents[i]
		item.ActorID = req.ActorID

		doc, err := s.Create(ctx, &item)
		if err != nil {
			s.logger.Warn("batch item failed", "index", i, "error", err)
			result.Failed++
			result.Results = append(result.Results, services.BatchItemResult{
				Index: i,
				Error: err.Error(),
			})
			continue
		}
		result.Created++
		result.Results = append(result.Results, services.BatchItemResult{
			Index:      i,
			DocumentID: doc.ID,
		})
	}
	return result, nil
}

// Get returns the document with its paragraphs. A non-empty snapshotID
// renders content from that snapshot instead of the working copy.
func (s *documentService) Get(ctx context.Context, id, snapshotID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if snapshotID != "" {
		snap, err := s.snapshotRepo.GetByID(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		if snap.DocumentID != id {
			return nil, fmt.Errorf("snapshot %s does not belong to document %s: %w",
				snapshotID, id, domain.ErrNotFound)
		}

		doc.Title = snap.Title
		doc.LanguageCode = snap.LanguageCode
		bodies := workflow.SplitBody(snap.Body)
		doc.Paragraphs = make([]models.Paragraph, len(bodies))
		for i, body := range bodies {
			doc.Paragraphs[i] = models.Paragraph{
				DocumentID:   id,
				Position:     i,
				Body:         body,
				LanguageCode: snap.LanguageCode,
				CreatedAt:    snap.CreatedAt,
				UpdatedAt:    snap.CreatedAt,
			}
		}
		return doc, nil
	}

	paragraphs, err := s.paragraphRepo.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Paragraphs = paragraphs
	return doc, nil
}

// List returns a page of documents (without paragraphs) plus the total count.
func (s *documentService) List(ctx context.Context, opts repositories.DocumentListOptions) ([]models.Document, int, error) {
	if opts.State != "" && !opts.State.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown workflow state %q", domain.ErrValidation, opts.State)
	}
	if opts.Limit <= 0 {
		opts.Limit = models.DefaultSearchLimit
	}
	if opts.Limit > models.MaxSearchLimit {
		opts.Limit = models.MaxSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.docRepo.List(ctx, opts)
}

// ListSnapshots returns the document's snapshots newest first.
func (s *documentService) ListSnapshots(ctx context.Context, documentID string) ([]models.Snapshot, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.snapshotRepo.ListByDocument(ctx, documentID)
}

// ListAudit returns the document's audit trail newest first.
func (s *documentService) ListAudit(ctx context.Context, documentID string) ([]models.AuditEvent, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByDocument(ctx, documentID)
}

func (s *documentService) writeAudit(ctx context.Context, documentID, actorID string, action models.AuditAction, reason string, fromState, toState models.WorkflowState, snapshotID *string) (*models.AuditEvent, error) {
	event := &models.AuditEvent{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     action,
		Reason:     reason,
		FromState:  fromState,
		ToState:    toState,
		SnapshotID: snapshotID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.auditRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func validateCreate(req *services.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.LanguageCode, validation.Required),
		validation.Field(&req.Paragraphs, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !searchcfg.ValidLanguageCode(req.LanguageCode) {
		return fmt.Errorf("%w: invalid language code %q", domain.ErrValidation, req.LanguageCode)
	}

	seen := make(map[int]bool, len(req.Paragraphs))
	for i, p := range req.Paragraphs {
		if strings.TrimSpace(p.Body) == "" {
			return fmt.Errorf("%w: paragraph %d has an empty body", domain.ErrValidation, i)
		}
		if len(p.Body) > config.MaxParagraphLength {
			return fmt.Errorf("%w: paragraph %d exceeds %d bytes", domain.ErrValidation, i, config.MaxParagraphLength)
		}
		if p.LanguageCode != "" && p.LanguageCode != req.LanguageCode {
			return fmt.Errorf("%w: paragraph %d language %q does not match document language %q",
				domain.ErrValidation, i, p.LanguageCode, req.LanguageCode)
		}
		if seen[p.Position] {
			return fmt.Errorf("%w: duplicate paragraph position %d", domain.ErrValidation, p.Position)
		}
		seen[p.Position] = true
	}
	return nil
}
