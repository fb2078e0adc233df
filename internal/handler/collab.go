package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"messagesearch/internal/auth"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/httputil"
)

// CollabHandler handles CRDT collaboration HTTP requests. Payloads travel
// base64-encoded in JSON and are never inspected.
type CollabHandler struct {
	collabService services.CollabService
	logger        *slog.Logger
}

// NewCollabHandler creates a new collaboration handler
func NewCollabHandler(collabService services.CollabService, logger *slog.Logger) *CollabHandler {
	return &CollabHandler{
		collabService: collabService,
		logger:        logger,
	}
}

type appendUpdateRequest struct {
	// Payload is the base64-encoded opaque CRDT update
	Payload []byte `json:"payload"`
}

type compactRequest struct {
	Payload []byte `json:"payload"`
	UpToSeq int64  `json:"upToSeq"`
}

// AppendUpdate appends one CRDT update to the document's log
// POST /v1/documents/{id}/collab/updates
func (h *CollabHandler) AppendUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RoleEditor)
	if !ok {
		return
	}

	var req appendUpdateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	update, err := h.collabService.Append(r.Context(), &services.AppendUpdateRequest{
		DocumentID: r.PathValue("id"),
		Payload:    req.Payload,
		ActorID:    userID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"seq":        update.Seq,
		"documentId": update.DocumentID,
		"createdAt":  update.CreatedAt,
	})
}

// ListUpdates returns updates after the given sequence number
// GET /v1/documents/{id}/collab/updates?since=
func (h *CollabHandler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			httputil.RespondError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = parsed
	}

	updates, err := h.collabService.List(r.Context(), r.PathValue("id"), since)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"updates": updates})
}

// PutSnapshot compacts the update log into a snapshot
// PUT /v1/documents/{id}/collab/snapshot
func (h *CollabHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleEditor); !ok {
		return
	}

	var req compactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.collabService.Compact(r.Context(), &services.CompactRequest{
		DocumentID: r.PathValue("id"),
		Payload:    req.Payload,
		UpToSeq:    req.UpToSeq,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}

// GetSnapshot returns the latest compacted snapshot
// GET /v1/documents/{id}/collab/snapshot
func (h *CollabHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	snap, err := h.collabService.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}
