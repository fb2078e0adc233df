// Package workflow implements the editorial lifecycle state machine.
// Every transition commits atomically: the version-guarded document update,
// the snapshot (where the transition emits one), the audit event and any
// review writes succeed or roll back together.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"messagesearch/internal/config"
	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
)

// Notifier receives transition events after a successful commit. Delivery is
// best-effort and must not block; the dispatcher handles retries itself.
type Notifier interface {
	Notify(event *models.TransitionEvent)
}

// paragraphSplit is the inverse of the snapshot body join: paragraphs are
// joined with blank lines, so a revert re-splits on them.
var paragraphSplit = regexp.MustCompile(`\n\s*\n+`)

// workflowService implements the WorkflowService interface
type workflowService struct {
	docRepo       repositories.DocumentRepository
	paragraphRepo repositories.ParagraphRepository
	snapshotRepo  repositories.SnapshotRepository
	auditRepo     repositories.AuditRepository
	reviewRepo    repositories.ReviewRepository
	txManager     repositories.TransactionManager
	notifier      Notifier
	logger        *slog.Logger
}

// NewService creates a new workflow service. notifier may be nil.
func NewService(
	docRepo repositories.DocumentRepository,
	paragraphRepo repositories.ParagraphRepository,
	snapshotRepo repositories.SnapshotRepository,
	auditRepo repositories.AuditRepository,
	reviewRepo repositories.ReviewRepository,
	txManager repositories.TransactionManager,
	notifier Notifier,
	logger *slog.Logger,
) services.WorkflowService {
	return &workflowService{
		docRepo:       docRepo,
		paragraphRepo: paragraphRepo,
		snapshotRepo:  snapshotRepo,
		auditRepo:     auditRepo,
		reviewRepo:    reviewRepo,
		txManager:     txManager,
		notifier:      notifier,
		logger:        logger,
	}
}

// SubmitForReview moves a draft into review and opens a review request.
// No snapshot is emitted.
func (s *workflowService) SubmitForReview(ctx context.Context, req *services.SubmitReviewRequest) (*services.TransitionResult, *models.ReviewRequest, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Summary, validation.Length(0, config.MaxReasonLength)),
		validation.Field(&req.Reviewers, validation.Required, validation.Length(1, config.MaxReviewers)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	for _, reviewer := range req.Reviewers {
		if strings.TrimSpace(reviewer) == "" {
			return nil, nil, fmt.Errorf("%w: reviewer ids must be non-empty", domain.ErrValidation)
		}
	}

	now := time.Now().UTC()
	review := &models.ReviewRequest{
		ID:         uuid.NewString(),
		DocumentID: req.DocumentID,
		Status:     models.ReviewInReview,
		Summary:    req.Summary,
		Reviewers:  req.Reviewers,
		CreatedBy:  req.ActorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			FromState:       models.StateDraft,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StateInReview,
		}); err != nil {
			return err
		}

		if err := s.reviewRepo.Create(txCtx, review); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID: req.DocumentID,
			actorID:    req.ActorID,
			action:     models.ActionReviewSubmitted,
			fromState:  models.StateDraft,
			toState:    models.StateInReview,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StateInReview,
			Version:    req.ExpectedVersion + 1,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notify(event)
	return result, review, nil
}

// ApproveReview publishes the document under review and closes the review.
func (s *workflowService) ApproveReview(ctx context.Context, req *services.ReviewDecisionRequest) (*services.TransitionResult, error) {
	if err := s.validateDecision(req); err != nil {
		return nil, err
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		review, err := s.openReview(txCtx, req.DocumentID, req.ReviewID)
		if err != nil {
			return err
		}

		doc, err := s.guardedDocument(txCtx, req.DocumentID, req.ExpectedVersion, models.StateInReview)
		if err != nil {
			return err
		}

		snap, err := s.captureSnapshot(txCtx, doc, models.SnapshotPublished, req.ActorID)
		if err != nil {
			return err
		}

		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			FromState:       models.StateInReview,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StatePublished,
			SnapshotID:      &snap.ID,
		}); err != nil {
			return err
		}

		if err := s.reviewRepo.UpdateStatus(txCtx, review.ID, models.ReviewApproved); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID:  req.DocumentID,
			actorID:     req.ActorID,
			action:      models.ActionReviewApproved,
			reason:      req.Reason,
			fromState:   models.StateInReview,
			toState:     models.StatePublished,
			snapshotID:  &snap.ID,
			diffSummary: req.DiffSummary,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StatePublished,
			Version:    req.ExpectedVersion + 1,
			SnapshotID: &snap.ID,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(event)
	return result, nil
}

// RequestChanges sends the document back to draft and marks the review.
// No snapshot is emitted.
func (s *workflowService) RequestChanges(ctx context.Context, req *services.ReviewDecisionRequest) (*services.TransitionResult, error) {
	if err := s.validateDecision(req); err != nil {
		return nil, err
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		review, err := s.openReview(txCtx, req.DocumentID, req.ReviewID)
		if err != nil {
			return err
		}

		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			FromState:       models.StateInReview,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StateDraft,
		}); err != nil {
			return err
		}

		if err := s.reviewRepo.UpdateStatus(txCtx, review.ID, models.ReviewChangesRequested); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID:  req.DocumentID,
			actorID:     req.ActorID,
			action:      models.ActionReviewRejected,
			reason:      req.Reason,
			fromState:   models.StateInReview,
			toState:     models.StateDraft,
			diffSummary: req.DiffSummary,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StateDraft,
			Version:    req.ExpectedVersion + 1,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(event)
	return result, nil
}

// Publish publishes an in-review document. Force publishes a draft directly,
// but only when the HTTP layer granted ForceAllowed (admin role).
func (s *workflowService) Publish(ctx context.Context, req *services.PublishRequest) (*services.TransitionResult, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Reason, validation.Required, validation.Length(1, config.MaxReasonLength)),
		validation.Field(&req.DiffSummary, validation.Length(0, config.MaxReasonLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Force && !req.ForceAllowed {
		return nil, fmt.Errorf("%w: force publish requires the admin role", domain.ErrForbidden)
	}

	action := models.ActionPublish
	if req.Force {
		action = models.ActionForcePublish
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		states := []models.WorkflowState{models.StateInReview}
		if req.Force {
			states = append(states, models.StateDraft)
		}
		doc, err := s.guardedDocument(txCtx, req.DocumentID, req.ExpectedVersion, states...)
		if err != nil {
			return err
		}
		fromState := doc.WorkflowState

		snap, err := s.captureSnapshot(txCtx, doc, models.SnapshotPublished, req.ActorID)
		if err != nil {
			return err
		}

		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			FromState:       fromState,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StatePublished,
			SnapshotID:      &snap.ID,
		}); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID:  req.DocumentID,
			actorID:     req.ActorID,
			action:      action,
			reason:      req.Reason,
			fromState:   fromState,
			toState:     models.StatePublished,
			snapshotID:  &snap.ID,
			diffSummary: req.DiffSummary,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StatePublished,
			Version:    req.ExpectedVersion + 1,
			SnapshotID: &snap.ID,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(event)
	return result, nil
}

// Archive archives a published document, capturing a final snapshot.
func (s *workflowService) Archive(ctx context.Context, req *services.ArchiveRequest) (*services.TransitionResult, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Reason, validation.Required, validation.Length(1, config.MaxReasonLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.guardedDocument(txCtx, req.DocumentID, req.ExpectedVersion, models.StatePublished)
		if err != nil {
			return err
		}

		snap, err := s.captureSnapshot(txCtx, doc, models.SnapshotArchived, req.ActorID)
		if err != nil {
			return err
		}

		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			FromState:       models.StatePublished,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StateArchived,
			SnapshotID:      &snap.ID,
		}); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID: req.DocumentID,
			actorID:    req.ActorID,
			action:     models.ActionArchive,
			reason:     req.Reason,
			fromState:  models.StatePublished,
			toState:    models.StateArchived,
			snapshotID: &snap.ID,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StateArchived,
			Version:    req.ExpectedVersion + 1,
			SnapshotID: &snap.ID,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(event)
	return result, nil
}

// Revert restores a past snapshot's content into the working copy as a new
// draft. The audit event links the source snapshot; no new snapshot is
// written (snapshots only capture published/archived states).
func (s *workflowService) Revert(ctx context.Context, req *services.RevertRequest) (*services.TransitionResult, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.SnapshotID, validation.Required),
		validation.Field(&req.Reason, validation.Length(0, config.MaxReasonLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var result *services.TransitionResult
	var event *models.TransitionEvent
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, req.DocumentID)
		if err != nil {
			return err
		}

		snap, err := s.snapshotRepo.GetByID(txCtx, req.SnapshotID)
		if err != nil {
			return err
		}
		if snap.DocumentID != req.DocumentID {
			return fmt.Errorf("snapshot %s does not belong to document %s: %w",
				req.SnapshotID, req.DocumentID, domain.ErrNotFound)
		}

		// Any state may be reverted; the CAS alone guards the version.
		if err := s.docRepo.Transition(txCtx, repositories.StateTransition{
			DocumentID:      req.DocumentID,
			ExpectedVersion: req.ExpectedVersion,
			ToState:         models.StateDraft,
			Title:           &snap.Title,
			LanguageCode:    &snap.LanguageCode,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		paragraphs := SplitBody(snap.Body)
		restored := make([]models.Paragraph, len(paragraphs))
		for i, body := range paragraphs {
			restored[i] = models.Paragraph{
				ID:           uuid.NewString(),
				DocumentID:   req.DocumentID,
				Position:     i,
				Body:         body,
				LanguageCode: snap.LanguageCode,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
		}
		if err := s.paragraphRepo.ReplaceForDocument(txCtx, req.DocumentID, restored); err != nil {
			return err
		}

		audit, err := s.writeAudit(txCtx, auditParams{
			documentID: req.DocumentID,
			actorID:    req.ActorID,
			action:     models.ActionRevert,
			reason:     req.Reason,
			fromState:  doc.WorkflowState,
			toState:    models.StateDraft,
			snapshotID: &snap.ID,
		})
		if err != nil {
			return err
		}

		result = &services.TransitionResult{
			DocumentID: req.DocumentID,
			State:      models.StateDraft,
			Version:    req.ExpectedVersion + 1,
			SnapshotID: &snap.ID,
			AuditID:    audit.ID,
		}
		event = s.transitionEvent(result, audit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(event)
	return result, nil
}

// AddReviewComment appends a comment to a review. No state change.
func (s *workflowService) AddReviewComment(ctx context.Context, req *services.AddCommentRequest) (*models.ReviewComment, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Body, validation.Required, validation.Length(1, config.MaxCommentLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	comment := &models.ReviewComment{
		ID:        uuid.NewString(),
		ReviewID:  req.ReviewID,
		AuthorID:  req.AuthorID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviewRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetReview returns a review request with its comments.
func (s *workflowService) GetReview(ctx context.Context, reviewID string) (*models.ReviewRequest, []models.ReviewComment, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.reviewRepo.ListComments(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}
	return review, comments, nil
}

func (s *workflowService) validateDecision(req *services.ReviewDecisionRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ReviewID, validation.Required),
		validation.Field(&req.Reason, validation.Length(0, config.MaxReasonLength)),
		validation.Field(&req.DiffSummary, validation.Length(0, config.MaxReasonLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// openReview loads a review and checks it belongs to the document and is
// still open.
func (s *workflowService) openReview(ctx context.Context, documentID, reviewID string) (*models.ReviewRequest, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.DocumentID != documentID {
		return nil, fmt.Errorf("review %s does not belong to document %s: %w",
			reviewID, documentID, domain.ErrNotFound)
	}
	if review.Status != models.ReviewInReview {
		return nil, &domain.ConflictError{
			Message:    fmt.Sprintf("review %s is already %s", reviewID, review.Status),
			DocumentID: documentID,
		}
	}
	return review, nil
}

// guardedDocument loads the document and checks the optimistic guard before
// any writes happen. The CAS re-checks the same predicate inside the UPDATE;
// this read just keeps stale requests from opening writes at all.
func (s *workflowService) guardedDocument(ctx context.Context, documentID string, expectedVersion int64, fromStates ...models.WorkflowState) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	stateOK := len(fromStates) == 0
	for _, state := range fromStates {
		if doc.WorkflowState == state {
			stateOK = true
			break
		}
	}
	if doc.Version != expectedVersion || !stateOK {
		return nil, &domain.ConflictError{
			Message:         fmt.Sprintf("document %s: version/state conflict", documentID),
			DocumentID:      documentID,
			ExpectedVersion: expectedVersion,
		}
	}
	return doc, nil
}

// captureSnapshot appends an immutable snapshot of the document's current
// content, versioned for the post-transition version.
func (s *workflowService) captureSnapshot(ctx context.Context, doc *models.Document, state models.SnapshotState, actorID string) (*models.Snapshot, error) {
	paragraphs, err := s.paragraphRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		Version:      doc.Version + 1,
		State:        state,
		Title:        doc.Title,
		Body:         JoinBodies(paragraphs),
		LanguageCode: doc.LanguageCode,
		CreatedBy:    actorID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.snapshotRepo.Create(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

type auditParams struct {
	documentID  string
	actorID     string
	action      models.AuditAction
	reason      string
	fromState   models.WorkflowState
	toState     models.WorkflowState
	snapshotID  *string
	diffSummary string
}

func (s *workflowService) writeAudit(ctx context.Context, p auditParams) (*models.AuditEvent, error) {
	event := &models.AuditEvent{
		ID:          uuid.NewString(),
		DocumentID:  p.documentID,
		ActorID:     p.actorID,
		Action:      p.action,
		Reason:      p.reason,
		FromState:   p.fromState,
		ToState:     p.toState,
		SnapshotID:  p.snapshotID,
		DiffSummary: p.diffSummary,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.auditRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *workflowService) transitionEvent(result *services.TransitionResult, audit *models.AuditEvent) *models.TransitionEvent {
	return &models.TransitionEvent{
		DocumentID: result.DocumentID,
		Action:     audit.Action,
		FromState:  audit.FromState,
		ToState:    audit.ToState,
		Version:    result.Version,
		SnapshotID: result.SnapshotID,
		ActorID:    audit.ActorID,
		OccurredAt: audit.CreatedAt,
	}
}

func (s *workflowService) notify(event *models.TransitionEvent) {
	if s.notifier == nil || event == nil {
		return
	}
	s.notifier.Notify(event)
}

// JoinBodies composes a snapshot body from ordered paragraph bodies.
func JoinBodies(paragraphs []models.Paragraph) string {
	bodies := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		bodies = append(bodies, p.Body)
	}
	return strings.Join(bodies, "\n\n")
}

// SplitBody is the inverse of JoinBodies: it splits a snapshot body back into
// paragraph bodies on blank lines, dropping empty segments.
func SplitBody(body string) []string {
	var out []string
	for _, part := range paragraphSplit.Split(body, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
