package handler

import (
	"log/slog"
	"net/http"

	"messagesearch/internal/auth"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// Create creates a new document (optionally publishing it immediately)
// POST /v1/documents
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RoleEditor)
	if !ok {
		return
	}

	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ActorID = userID

	doc, err := h.docService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// CreateBatch creates many documents with per-item error reporting
// POST /v1/documents:batch
func (h *DocumentHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RoleEditor)
	if !ok {
		return
	}

	var req services.BatchCreateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ActorID = userID

	result, err := h.docService.CreateBatch(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if result.Failed == 0 {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, result)
}

// List returns a page of documents
// GET /v1/documents?state=&limit=&offset=
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	opts := repositories.DocumentListOptions{
		State:  models.WorkflowState(r.URL.Query().Get("state")),
		Limit:  queryInt(r, "limit", models.DefaultSearchLimit),
		Offset: queryInt(r, "offset", 0),
	}

	documents, total, err := h.docService.List(r.Context(), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"limit":   opts.Limit,
		"offset":  opts.Offset,
		"results": documents,
	})
}

// Get returns a document with its paragraphs
// GET /v1/documents/{id}?snapshotId=
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	doc, err := h.docService.Get(r.Context(), id, r.URL.Query().Get("snapshotId"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListSnapshots returns a document's snapshots newest first
// GET /v1/documents/{id}/snapshots
func (h *DocumentHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	snapshots, err := h.docService.ListSnapshots(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

// ListAudit returns a document's audit trail newest first
// GET /v1/documents/{id}/audit
func (h *DocumentHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	events, err := h.docService.ListAudit(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
