package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/repository/memory"
)

// ============================================================================
// Test fixtures
// ============================================================================

type fakeNotifier struct {
	mu     sync.Mutex
	events []*models.TransitionEvent
}

func (f *fakeNotifier) Notify(event *models.TransitionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeNotifier) last() *models.TransitionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

type testEnv struct {
	service       services.WorkflowService
	docRepo       repositories.DocumentRepository
	paragraphRepo repositories.ParagraphRepository
	snapshotRepo  repositories.SnapshotRepository
	auditRepo     repositories.AuditRepository
	reviewRepo    repositories.ReviewRepository
	notifier      *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		docRepo:       memory.NewDocumentRepository(store),
		paragraphRepo: memory.NewParagraphRepository(store),
		snapshotRepo:  memory.NewSnapshotRepository(store),
		auditRepo:     memory.NewAuditRepository(store),
		reviewRepo:    memory.NewReviewRepository(store),
		notifier:      &fakeNotifier{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.service = NewService(
		env.docRepo, env.paragraphRepo, env.snapshotRepo, env.auditRepo,
		env.reviewRepo, memory.NewTransactionManager(), env.notifier, logger,
	)
	return env
}

func (env *testEnv) seedDocument(t *testing.T, id string, state models.WorkflowState, version int64, bodies ...string) {
	t.Helper()

	doc := &models.Document{
		ID:            id,
		Title:         "Title of " + id,
		LanguageCode:  "en",
		Version:       version,
		WorkflowState: state,
		CreatedBy:     "seed",
	}
	if err := env.docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	paragraphs := make([]models.Paragraph, len(bodies))
	for i, body := range bodies {
		paragraphs[i] = models.Paragraph{
			ID:           id + "-p" + string(rune('0'+i)),
			DocumentID:   id,
			Position:     i,
			Body:         body,
			LanguageCode: "en",
		}
	}
	if len(paragraphs) > 0 {
		if err := env.paragraphRepo.CreateBatch(context.Background(), paragraphs); err != nil {
			t.Fatalf("seed paragraphs: %v", err)
		}
	}
}

func (env *testEnv) mustDoc(t *testing.T, id string) *models.Document {
	t.Helper()
	doc, err := env.docRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get document %s: %v", id, err)
	}
	return doc
}

func (env *testEnv) snapshots(t *testing.T, documentID string) []models.Snapshot {
	t.Helper()
	snaps, err := env.snapshotRepo.ListByDocument(context.Background(), documentID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	return snaps
}

func (env *testEnv) audits(t *testing.T, documentID string) []models.AuditEvent {
	t.Helper()
	events, err := env.auditRepo.ListByDocument(context.Background(), documentID)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	return events
}

// submitReview moves a seeded draft into review and returns the review.
func (env *testEnv) submitReview(t *testing.T, documentID string, version int64) *models.ReviewRequest {
	t.Helper()
	_, review, err := env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
		DocumentID:      documentID,
		ExpectedVersion: version,
		Summary:         "please take a look",
		Reviewers:       []string{"rev-1"},
		ActorID:         "author",
	})
	if err != nil {
		t.Fatalf("submit for review: %v", err)
	}
	return review
}

// ============================================================================
// Submit for review
// ============================================================================

func TestSubmitForReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "first paragraph")

	result, review, err := env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		Summary:         "ready for review",
		Reviewers:       []string{"rev-1", "rev-2"},
		ActorID:         "author",
	})
	if err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}

	if result.State != models.StateInReview {
		t.Errorf("expected state %s, got %s", models.StateInReview, result.State)
	}
	if result.Version != 2 {
		t.Errorf("expected version 2, got %d", result.Version)
	}
	if result.SnapshotID != nil {
		t.Error("review submission must not emit a snapshot")
	}

	doc := env.mustDoc(t, "doc-1")
	if doc.WorkflowState != models.StateInReview || doc.Version != 2 {
		t.Errorf("document not transitioned: state=%s version=%d", doc.WorkflowState, doc.Version)
	}

	if review.Status != models.ReviewInReview {
		t.Errorf("expected review status %s, got %s", models.ReviewInReview, review.Status)
	}
	if len(review.Reviewers) != 2 {
		t.Errorf("expected 2 reviewers, got %d", len(review.Reviewers))
	}

	events := env.audits(t, "doc-1")
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].Action != models.ActionReviewSubmitted {
		t.Errorf("expected action %s, got %s", models.ActionReviewSubmitted, events[0].Action)
	}

	if env.notifier.count() != 1 {
		t.Errorf("expected 1 transition event, got %d", env.notifier.count())
	}
}

func TestSubmitForReview_Validation(t *testing.T) {
	tests := []struct {
		name      string
		reviewers []string
	}{
		{name: "no reviewers", reviewers: nil},
		{name: "empty reviewer id", reviewers: []string{"rev-1", "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")

			_, _, err := env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
				DocumentID:      "doc-1",
				ExpectedVersion: 1,
				Reviewers:       tt.reviewers,
				ActorID:         "author",
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if env.notifier.count() != 0 {
				t.Error("failed submission must not emit a transition event")
			}
		})
	}
}

func TestSubmitForReview_StaleVersion(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 3, "body")

	_, _, err := env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		Reviewers:       []string{"rev-1"},
		ActorID:         "author",
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Error("ConflictError must match ErrConflict via errors.Is")
	}

	doc := env.mustDoc(t, "doc-1")
	if doc.Version != 3 || doc.WorkflowState != models.StateDraft {
		t.Errorf("stale submit mutated the document: state=%s version=%d", doc.WorkflowState, doc.Version)
	}
	if len(env.audits(t, "doc-1")) != 0 {
		t.Error("stale submit must not write audit events")
	}
	if env.notifier.count() != 0 {
		t.Error("stale submit must not emit a transition event")
	}
}

func TestSubmitForReview_NotDraft(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StatePublished, 2, "body")

	_, _, err := env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		Reviewers:       []string{"rev-1"},
		ActorID:         "author",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict for non-draft submission, got %v", err)
	}
}

// ============================================================================
// Review decisions
// ============================================================================

func TestApproveReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "alpha paragraph", "beta paragraph")
	review := env.submitReview(t, "doc-1", 1)

	result, err := env.service.ApproveReview(context.Background(), &services.ReviewDecisionRequest{
		DocumentID:      "doc-1",
		ReviewID:        review.ID,
		ExpectedVersion: 2,
		Reason:          "looks good",
		ActorID:         "rev-1",
	})
	if err != nil {
		t.Fatalf("ApproveReview failed: %v", err)
	}

	if result.State != models.StatePublished {
		t.Errorf("expected state %s, got %s", models.StatePublished, result.State)
	}
	if result.Version != 3 {
		t.Errorf("expected version 3, got %d", result.Version)
	}
	if result.SnapshotID == nil {
		t.Fatal("approval must emit a snapshot")
	}

	doc := env.mustDoc(t, "doc-1")
	if doc.SnapshotID == nil || *doc.SnapshotID != *result.SnapshotID {
		t.Error("document snapshot pointer not updated")
	}

	snaps := env.snapshots(t, "doc-1")
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	if snaps[0].Version != 3 {
		t.Errorf("snapshot versioned for %d, want 3", snaps[0].Version)
	}
	if snaps[0].State != models.SnapshotPublished {
		t.Errorf("expected snapshot state %s, got %s", models.SnapshotPublished, snaps[0].State)
	}
	if snaps[0].Body != "alpha paragraph\n\nbeta paragraph" {
		t.Errorf("snapshot body not the blank-line join of paragraphs: %q", snaps[0].Body)
	}

	updated, err := env.reviewRepo.GetByID(context.Background(), review.ID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if updated.Status != models.ReviewApproved {
		t.Errorf("expected review status %s, got %s", models.ReviewApproved, updated.Status)
	}

	events := env.audits(t, "doc-1")
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
	if events[0].Action != models.ActionReviewApproved {
		t.Errorf("expected newest action %s, got %s", models.ActionReviewApproved, events[0].Action)
	}
	if events[0].SnapshotID == nil || *events[0].SnapshotID != *result.SnapshotID {
		t.Error("approval audit must link the emitted snapshot")
	}
}

func TestRequestChanges(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")
	review := env.submitReview(t, "doc-1", 1)

	result, err := env.service.RequestChanges(context.Background(), &services.ReviewDecisionRequest{
		DocumentID:      "doc-1",
		ReviewID:        review.ID,
		ExpectedVersion: 2,
		Reason:          "needs work",
		ActorID:         "rev-1",
	})
	if err != nil {
		t.Fatalf("RequestChanges failed: %v", err)
	}

	if result.State != models.StateDraft {
		t.Errorf("expected state %s, got %s", models.StateDraft, result.State)
	}
	if result.SnapshotID != nil {
		t.Error("request-changes must not emit a snapshot")
	}
	if len(env.snapshots(t, "doc-1")) != 0 {
		t.Error("request-changes wrote a snapshot")
	}

	updated, err := env.reviewRepo.GetByID(context.Background(), review.ID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if updated.Status != models.ReviewChangesRequested {
		t.Errorf("expected review status %s, got %s", models.ReviewChangesRequested, updated.Status)
	}
}

func TestApproveReview_ClosedReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")
	review := env.submitReview(t, "doc-1", 1)

	if _, err := env.service.RequestChanges(context.Background(), &services.ReviewDecisionRequest{
		DocumentID:      "doc-1",
		ReviewID:        review.ID,
		ExpectedVersion: 2,
		ActorID:         "rev-1",
	}); err != nil {
		t.Fatalf("RequestChanges failed: %v", err)
	}

	// The review is closed; a second decision must conflict.
	_, err := env.service.ApproveReview(context.Background(), &services.ReviewDecisionRequest{
		DocumentID:      "doc-1",
		ReviewID:        review.ID,
		ExpectedVersion: 3,
		ActorID:         "rev-1",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict on closed review, got %v", err)
	}
}

func TestApproveReview_WrongDocument(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")
	env.seedDocument(t, "doc-2", models.StateDraft, 1, "body")
	review := env.submitReview(t, "doc-1", 1)

	_, err := env.service.ApproveReview(context.Background(), &services.ReviewDecisionRequest{
		DocumentID:      "doc-2",
		ReviewID:        review.ID,
		ExpectedVersion: 1,
		ActorID:         "rev-1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for mismatched document, got %v", err)
	}
}

// ============================================================================
// Publish / archive
// ============================================================================

func TestPublish(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateInReview, 2, "content")

	result, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		Reason:          "release",
		ActorID:         "pub-1",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if result.State != models.StatePublished || result.Version != 3 {
		t.Errorf("unexpected result: state=%s version=%d", result.State, result.Version)
	}
	if result.SnapshotID == nil {
		t.Fatal("publish must emit a snapshot")
	}

	events := env.audits(t, "doc-1")
	if len(events) != 1 || events[0].Action != models.ActionPublish {
		t.Errorf("expected a single publish audit event, got %+v", events)
	}
	if events[0].Reason != "release" {
		t.Errorf("audit reason not recorded: %q", events[0].Reason)
	}

	event := env.notifier.last()
	if event == nil {
		t.Fatal("publish must emit a transition event")
	}
	if event.Action != models.ActionPublish || event.ToState != models.StatePublished {
		t.Errorf("unexpected transition event: %+v", event)
	}
}

func TestPublish_RequiresReason(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateInReview, 2, "content")

	_, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		ActorID:         "pub-1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for missing reason, got %v", err)
	}
}

func TestPublish_DraftWithoutForce(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "content")

	_, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		Reason:          "ship it",
		ActorID:         "pub-1",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict publishing a draft without force, got %v", err)
	}
	if len(env.snapshots(t, "doc-1")) != 0 {
		t.Error("failed publish left a snapshot behind")
	}
}

func TestForcePublish(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "content")

	// Force without the admin grant is forbidden.
	_, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		Force:           true,
		Reason:          "hotfix",
		ActorID:         "ed-1",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden without ForceAllowed, got %v", err)
	}

	result, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		Force:           true,
		ForceAllowed:    true,
		Reason:          "hotfix",
		ActorID:         "admin-1",
	})
	if err != nil {
		t.Fatalf("force publish failed: %v", err)
	}
	if result.State != models.StatePublished {
		t.Errorf("expected state %s, got %s", models.StatePublished, result.State)
	}

	events := env.audits(t, "doc-1")
	if len(events) != 1 || events[0].Action != models.ActionForcePublish {
		t.Errorf("expected a force_publish audit event, got %+v", events)
	}
}

func TestArchive(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StatePublished, 3, "content")

	result, err := env.service.Archive(context.Background(), &services.ArchiveRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 3,
		Reason:          "superseded",
		ActorID:         "pub-1",
	})
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	if result.State != models.StateArchived || result.Version != 4 {
		t.Errorf("unexpected result: state=%s version=%d", result.State, result.Version)
	}

	snaps := env.snapshots(t, "doc-1")
	if len(snaps) != 1 || snaps[0].State != models.SnapshotArchived {
		t.Errorf("expected one archived snapshot, got %+v", snaps)
	}
}

func TestArchive_StaleVersionNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StatePublished, 5, "content")

	_, err := env.service.Archive(context.Background(), &services.ArchiveRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 4,
		Reason:          "superseded",
		ActorID:         "pub-1",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if len(env.snapshots(t, "doc-1")) != 0 {
		t.Error("stale archive wrote a snapshot")
	}
	if len(env.audits(t, "doc-1")) != 0 {
		t.Error("stale archive wrote an audit event")
	}
	doc := env.mustDoc(t, "doc-1")
	if doc.Version != 5 || doc.WorkflowState != models.StatePublished {
		t.Errorf("stale archive mutated the document: state=%s version=%d", doc.WorkflowState, doc.Version)
	}
}

func TestConcurrentPublish_OneWins(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateInReview, 2, "content")

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.Publish(context.Background(), &services.PublishRequest{
				DocumentID:      "doc-1",
				ExpectedVersion: 2,
				Reason:          "race",
				ActorID:         "pub-1",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if conflicted != writers-1 {
		t.Errorf("expected %d conflicts, got %d", writers-1, conflicted)
	}

	if len(env.snapshots(t, "doc-1")) != 1 {
		t.Errorf("expected exactly 1 snapshot, got %d", len(env.snapshots(t, "doc-1")))
	}
	doc := env.mustDoc(t, "doc-1")
	if doc.Version != 3 {
		t.Errorf("expected version 3 after single transition, got %d", doc.Version)
	}
}

func TestConcurrentMixedTransitions_NoOrphanSnapshot(t *testing.T) {
	// A force publish racing a review submission on the same draft: whichever
	// transition loses must leave nothing behind, in particular no snapshot
	// from a publish whose state change never landed.
	for i := 0; i < 20; i++ {
		env := newTestEnv(t)
		env.seedDocument(t, "doc-1", models.StateDraft, 1, "content")

		var publishErr, submitErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, publishErr = env.service.Publish(context.Background(), &services.PublishRequest{
				DocumentID:      "doc-1",
				ExpectedVersion: 1,
				Reason:          "race",
				Force:           true,
				ForceAllowed:    true,
				ActorID:         "admin-1",
			})
		}()
		go func() {
			defer wg.Done()
			_, _, submitErr = env.service.SubmitForReview(context.Background(), &services.SubmitReviewRequest{
				DocumentID:      "doc-1",
				ExpectedVersion: 1,
				Summary:         "race",
				Reviewers:       []string{"rev-1"},
				ActorID:         "author",
			})
		}()
		wg.Wait()

		if (publishErr == nil) == (submitErr == nil) {
			t.Fatalf("iteration %d: expected exactly one winner, publish=%v submit=%v",
				i, publishErr, submitErr)
		}
		if publishErr != nil && !errors.Is(publishErr, domain.ErrConflict) {
			t.Fatalf("iteration %d: unexpected publish error: %v", i, publishErr)
		}
		if submitErr != nil && !errors.Is(submitErr, domain.ErrConflict) {
			t.Fatalf("iteration %d: unexpected submit error: %v", i, submitErr)
		}

		snaps := env.snapshots(t, "doc-1")
		if publishErr == nil {
			if len(snaps) != 1 {
				t.Fatalf("iteration %d: publish won but %d snapshots stored", i, len(snaps))
			}
		} else if len(snaps) != 0 {
			t.Fatalf("iteration %d: failed publish left %d orphan snapshots", i, len(snaps))
		}
	}
}

// ============================================================================
// Revert
// ============================================================================

func TestRevert(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateInReview, 2, "original one", "original two")

	published, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		Reason:          "v1 release",
		ActorID:         "pub-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Simulate later edits to the working copy.
	if err := env.paragraphRepo.ReplaceForDocument(context.Background(), "doc-1", []models.Paragraph{
		{ID: "doc-1-new", DocumentID: "doc-1", Position: 0, Body: "rewritten", LanguageCode: "en"},
	}); err != nil {
		t.Fatalf("replace paragraphs: %v", err)
	}

	result, err := env.service.Revert(context.Background(), &services.RevertRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 3,
		SnapshotID:      *published.SnapshotID,
		Reason:          "roll back",
		ActorID:         "pub-1",
	})
	if err != nil {
		t.Fatalf("Revert failed: %v", err)
	}

	if result.State != models.StateDraft || result.Version != 4 {
		t.Errorf("unexpected result: state=%s version=%d", result.State, result.Version)
	}
	if result.SnapshotID == nil || *result.SnapshotID != *published.SnapshotID {
		t.Error("revert result must reference the source snapshot")
	}

	// No new snapshot: only the published one exists.
	if len(env.snapshots(t, "doc-1")) != 1 {
		t.Errorf("revert must not emit a snapshot, got %d", len(env.snapshots(t, "doc-1")))
	}

	paragraphs, err := env.paragraphRepo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("list paragraphs: %v", err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 restored paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Body != "original one" || paragraphs[1].Body != "original two" {
		t.Errorf("restored bodies wrong: %q, %q", paragraphs[0].Body, paragraphs[1].Body)
	}

	events := env.audits(t, "doc-1")
	if events[0].Action != models.ActionRevert {
		t.Errorf("expected newest audit action %s, got %s", models.ActionRevert, events[0].Action)
	}
	if events[0].SnapshotID == nil || *events[0].SnapshotID != *published.SnapshotID {
		t.Error("revert audit must link the source snapshot")
	}
}

func TestRevert_ForeignSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateInReview, 2, "content")
	env.seedDocument(t, "doc-2", models.StateDraft, 1, "other")

	published, err := env.service.Publish(context.Background(), &services.PublishRequest{
		DocumentID:      "doc-1",
		ExpectedVersion: 2,
		Reason:          "release",
		ActorID:         "pub-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	_, err = env.service.Revert(context.Background(), &services.RevertRequest{
		DocumentID:      "doc-2",
		ExpectedVersion: 1,
		SnapshotID:      *published.SnapshotID,
		ActorID:         "pub-1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for foreign snapshot, got %v", err)
	}
}

// ============================================================================
// Review comments
// ============================================================================

func TestAddReviewComment(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")
	review := env.submitReview(t, "doc-1", 1)

	comment, err := env.service.AddReviewComment(context.Background(), &services.AddCommentRequest{
		ReviewID: review.ID,
		AuthorID: "rev-1",
		Body:     "typo in the second paragraph",
	})
	if err != nil {
		t.Fatalf("AddReviewComment failed: %v", err)
	}
	if comment.ID == "" {
		t.Error("comment ID not assigned")
	}

	got, comments, err := env.service.GetReview(context.Background(), review.ID)
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}
	if got.ID != review.ID {
		t.Errorf("expected review %s, got %s", review.ID, got.ID)
	}
	if len(comments) != 1 || comments[0].Body != "typo in the second paragraph" {
		t.Errorf("unexpected comments: %+v", comments)
	}
}

func TestAddReviewComment_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", models.StateDraft, 1, "body")
	review := env.submitReview(t, "doc-1", 1)

	_, err := env.service.AddReviewComment(context.Background(), &services.AddCommentRequest{
		ReviewID: review.ID,
		AuthorID: "rev-1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty body, got %v", err)
	}
}

// ============================================================================
// Snapshot body round trip
// ============================================================================

func TestJoinSplitBodies(t *testing.T) {
	tests := []struct {
		name   string
		bodies []string
	}{
		{name: "single paragraph", bodies: []string{"only one"}},
		{name: "multiple paragraphs", bodies: []string{"first", "second", "third"}},
		{name: "multiline paragraph", bodies: []string{"line one\nline two", "second paragraph"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paragraphs := make([]models.Paragraph, len(tt.bodies))
			for i, body := range tt.bodies {
				paragraphs[i] = models.Paragraph{Body: body}
			}

			got := SplitBody(JoinBodies(paragraphs))
			if len(got) != len(tt.bodies) {
				t.Fatalf("round trip returned %d paragraphs, want %d", len(got), len(tt.bodies))
			}
			for i := range got {
				if got[i] != tt.bodies[i] {
					t.Errorf("paragraph %d: got %q, want %q", i, got[i], tt.bodies[i])
				}
			}
		})
	}
}

func TestSplitBody_NormalizesBlankRuns(t *testing.T) {
	got := SplitBody("first\n\n\n\nsecond\n \nthird")
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %d paragraphs, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
