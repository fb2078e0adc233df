package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"messagesearch/internal/config"
	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/repository/memory"
)

type docEnv struct {
	service       services.DocumentService
	docRepo       repositories.DocumentRepository
	paragraphRepo repositories.ParagraphRepository
	snapshotRepo  repositories.SnapshotRepository
	auditRepo     repositories.AuditRepository
}

func newDocEnv(t *testing.T) *docEnv {
	t.Helper()

	store := memory.NewStore()
	env := &docEnv{
		docRepo:       memory.NewDocumentRepository(store),
		paragraphRepo: memory.NewParagraphRepository(store),
		snapshotRepo:  memory.NewSnapshotRepository(store),
		auditRepo:     memory.NewAuditRepository(store),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.service = NewService(env.docRepo, env.paragraphRepo, env.snapshotRepo, env.auditRepo,
		memory.NewTransactionManager(), logger)
	return env
}

func heading(s string) *string { return &s }

func validRequest() *services.CreateDocumentRequest {
	return &services.CreateDocumentRequest{
		Title:        "Runbook",
		LanguageCode: "en",
		ActorID:      "ed-1",
		Paragraphs: []services.ParagraphInput{
			{Position: 0, Heading: heading("Intro"), Body: "First paragraph."},
			{Position: 1, Body: "Second paragraph."},
		},
	}
}

// ============================================================================
// Create
// ============================================================================

func TestCreate_Draft(t *testing.T) {
	env := newDocEnv(t)

	doc, err := env.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}
	if doc.WorkflowState != models.StateDraft {
		t.Errorf("expected state %s, got %s", models.StateDraft, doc.WorkflowState)
	}
	if doc.SnapshotID != nil {
		t.Error("draft creation must not emit a snapshot")
	}
	if len(doc.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Paragraphs))
	}
	for _, p := range doc.Paragraphs {
		if p.LanguageCode != "en" {
			t.Errorf("paragraph language not inherited from document: %q", p.LanguageCode)
		}
	}

	events, err := env.auditRepo.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(events) != 1 || events[0].Action != models.ActionDraftCreated {
		t.Errorf("expected a single draft.created event, got %+v", events)
	}
}

func TestCreate_PublishOnCreate(t *testing.T) {
	env := newDocEnv(t)

	req := validRequest()
	req.Publish = true

	doc, err := env.service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
	if doc.WorkflowState != models.StatePublished {
		t.Errorf("expected state %s, got %s", models.StatePublished, doc.WorkflowState)
	}
	if doc.SnapshotID == nil {
		t.Fatal("publish-on-create must emit a snapshot")
	}

	snap, err := env.snapshotRepo.GetByID(context.Background(), *doc.SnapshotID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("snapshot versioned for %d, want 2", snap.Version)
	}
	if snap.Body != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("snapshot body not the blank-line join: %q", snap.Body)
	}

	events, err := env.auditRepo.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected draft.created + publish events, got %d", len(events))
	}
	if events[0].Action != models.ActionPublish || events[1].Action != models.ActionDraftCreated {
		t.Errorf("unexpected audit actions: %s, %s", events[0].Action, events[1].Action)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*services.CreateDocumentRequest)
	}{
		{
			name:   "missing title",
			mutate: func(r *services.CreateDocumentRequest) { r.Title = "" },
		},
		{
			name:   "missing language",
			mutate: func(r *services.CreateDocumentRequest) { r.LanguageCode = "" },
		},
		{
			name:   "invalid language code",
			mutate: func(r *services.CreateDocumentRequest) { r.LanguageCode = "not a language!" },
		},
		{
			name:   "no paragraphs",
			mutate: func(r *services.CreateDocumentRequest) { r.Paragraphs = nil },
		},
		{
			name: "blank paragraph body",
			mutate: func(r *services.CreateDocumentRequest) {
				r.Paragraphs[1].Body = "   \n "
			},
		},
		{
			name: "oversized paragraph",
			mutate: func(r *services.CreateDocumentRequest) {
				r.Paragraphs[0].Body = strings.Repeat("a", config.MaxParagraphLength+1)
			},
		},
		{
			name: "paragraph language mismatch",
			mutate: func(r *services.CreateDocumentRequest) {
				r.Paragraphs[0].LanguageCode = "de"
			},
		},
		{
			name: "duplicate paragraph position",
			mutate: func(r *services.CreateDocumentRequest) {
				r.Paragraphs[1].Position = r.Paragraphs[0].Position
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newDocEnv(t)
			req := validRequest()
			tt.mutate(req)

			_, err := env.service.Create(context.Background(), req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

// ============================================================================
// Batch create
// ============================================================================

func TestCreateBatch_PartialFailure(t *testing.T) {
	env := newDocEnv(t)

	bad := *validRequest()
	bad.Title = ""

	result, err := env.service.CreateBatch(context.Background(), &services.BatchCreateRequest{
		Documents: []services.CreateDocumentRequest{*validRequest(), bad, *validRequest()},
		ActorID:   "ed-1",
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if result.Created != 2 || result.Failed != 1 {
		t.Errorf("expected 2 created / 1 failed, got %d / %d", result.Created, result.Failed)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 item results, got %d", len(result.Results))
	}
	if result.Results[0].DocumentID == "" || result.Results[0].Error != "" {
		t.Errorf("item 0 should have succeeded: %+v", result.Results[0])
	}
	if result.Results[1].Error == "" || result.Results[1].DocumentID != "" {
		t.Errorf("item 1 should have failed: %+v", result.Results[1])
	}
	if result.Results[1].Index != 1 {
		t.Errorf("failure reported at index %d, want 1", result.Results[1].Index)
	}
}

func TestCreateBatch_Limits(t *testing.T) {
	env := newDocEnv(t)

	if _, err := env.service.CreateBatch(context.Background(), &services.BatchCreateRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty batch: expected validation error, got %v", err)
	}

	oversized := make([]services.CreateDocumentRequest, config.MaxBatchDocuments+1)
	for i := range oversized {
		oversized[i] = *validRequest()
	}
	if _, err := env.service.CreateBatch(context.Background(), &services.BatchCreateRequest{
		Documents: oversized,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("oversized batch: expected validation error, got %v", err)
	}
}

// ============================================================================
// Reads
// ============================================================================

func TestGet_WorkingCopy(t *testing.T) {
	env := newDocEnv(t)
	created, err := env.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := env.service.Get(context.Background(), created.ID, "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(doc.Paragraphs) != 2 {
		t.Errorf("expected 2 paragraphs, got %d", len(doc.Paragraphs))
	}
	if doc.Paragraphs[0].Body != "First paragraph." {
		t.Errorf("paragraphs out of order: %q", doc.Paragraphs[0].Body)
	}
}

func TestGet_FromSnapshot(t *testing.T) {
	env := newDocEnv(t)

	req := validRequest()
	req.Publish = true
	created, err := env.service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := env.service.Get(context.Background(), created.ID, *created.SnapshotID)
	if err != nil {
		t.Fatalf("Get from snapshot failed: %v", err)
	}
	if len(doc.Paragraphs) != 2 {
		t.Fatalf("snapshot render returned %d paragraphs, want 2", len(doc.Paragraphs))
	}
	if doc.Paragraphs[0].Body != "First paragraph." || doc.Paragraphs[1].Body != "Second paragraph." {
		t.Errorf("snapshot content wrong: %+v", doc.Paragraphs)
	}
}

func TestGet_ForeignSnapshot(t *testing.T) {
	env := newDocEnv(t)

	req := validRequest()
	req.Publish = true
	first, err := env.service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.service.Get(context.Background(), second.ID, *first.SnapshotID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for foreign snapshot, got %v", err)
	}
}

func TestGet_MissingDocument(t *testing.T) {
	env := newDocEnv(t)

	_, err := env.service.Get(context.Background(), "nope", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestList(t *testing.T) {
	env := newDocEnv(t)
	for i := 0; i < 3; i++ {
		if _, err := env.service.Create(context.Background(), validRequest()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	published := validRequest()
	published.Publish = true
	if _, err := env.service.Create(context.Background(), published); err != nil {
		t.Fatalf("create: %v", err)
	}

	docs, total, err := env.service.List(context.Background(), repositories.DocumentListOptions{
		State: models.StateDraft,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(docs) != 3 {
		t.Errorf("expected 3 drafts, got total=%d page=%d", total, len(docs))
	}

	// Limit bounds the page, not the total.
	docs, total, err = env.service.List(context.Background(), repositories.DocumentListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 4 || len(docs) != 2 {
		t.Errorf("expected total=4 page=2, got total=%d page=%d", total, len(docs))
	}

	if _, _, err := env.service.List(context.Background(), repositories.DocumentListOptions{
		State: "bogus",
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown state, got %v", err)
	}
}

func TestListSnapshotsAndAudit_MissingDocument(t *testing.T) {
	env := newDocEnv(t)

	if _, err := env.service.ListSnapshots(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListSnapshots: expected not found, got %v", err)
	}
	if _, err := env.service.ListAudit(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListAudit: expected not found, got %v", err)
	}
}
