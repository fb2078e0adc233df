package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"messagesearch/internal/auth"
	"messagesearch/internal/domain"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/httputil"
	"messagesearch/internal/metrics"
)

// WorkflowHandler handles workflow transition HTTP requests. Every
// transition endpoint reads the expected version from If-Match.
type WorkflowHandler struct {
	workflowService services.WorkflowService
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflowService services.WorkflowService, m *metrics.Metrics, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		metrics:         m,
		logger:          logger,
	}
}

// SubmitReview opens a review cycle on a draft
// POST /v1/documents/{id}/review
func (h *WorkflowHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RoleEditor)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.SubmitReviewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = r.PathValue("id")
	req.ExpectedVersion = version
	req.ActorID = userID

	_, review, err := h.workflowService.SubmitForReview(r.Context(), &req)
	h.record("review.submitted", err)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"reviewId":   review.ID,
		"documentId": review.DocumentID,
		"status":     review.Status,
		"createdAt":  review.CreatedAt,
	})
}

// Approve publishes the document under review
// POST /v1/documents/{id}/reviews/{reviewId}/approve
func (h *WorkflowHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// RequestChanges sends the document back to draft
// POST /v1/documents/{id}/reviews/{reviewId}/request-changes
func (h *WorkflowHandler) RequestChanges(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *WorkflowHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	userID, ok := requireRole(w, r, auth.RoleReviewer)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.ReviewDecisionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = r.PathValue("id")
	req.ReviewID = r.PathValue("reviewId")
	req.ExpectedVersion = version
	req.ActorID = userID

	var result *services.TransitionResult
	if approve {
		result, err = h.workflowService.ApproveReview(r.Context(), &req)
		h.record("review.approved", err)
	} else {
		result, err = h.workflowService.RequestChanges(r.Context(), &req)
		h.record("review.rejected", err)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Publish publishes a document; force requires the admin role
// POST /v1/documents/{id}/publish
func (h *WorkflowHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RolePublisher)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.PublishRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = r.PathValue("id")
	req.ExpectedVersion = version
	req.ActorID = userID

	claims := httputil.GetClaims(r)
	req.ForceAllowed = claims != nil && auth.HasRole(claims.Roles, auth.RoleAdmin)

	result, err := h.workflowService.Publish(r.Context(), &req)
	if req.Force {
		h.record("force_publish", err)
	} else {
		h.record("publish", err)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Archive archives a published document
// POST /v1/documents/{id}/archive
func (h *WorkflowHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RolePublisher)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.ArchiveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = r.PathValue("id")
	req.ExpectedVersion = version
	req.ActorID = userID

	result, err := h.workflowService.Archive(r.Context(), &req)
	h.record("archive", err)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Revert restores a snapshot's content as a new draft
// POST /v1/documents/{id}/revert
func (h *WorkflowHandler) Revert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RolePublisher)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.RevertRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = r.PathValue("id")
	req.ExpectedVersion = version
	req.ActorID = userID

	result, err := h.workflowService.Revert(r.Context(), &req)
	h.record("revert", err)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// AddComment appends a comment to a review
// POST /v1/documents/{id}/reviews/{reviewId}/comments
func (h *WorkflowHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireRole(w, r, auth.RoleEditor)
	if !ok {
		return
	}

	var req services.AddCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ReviewID = r.PathValue("reviewId")
	req.AuthorID = userID

	comment, err := h.workflowService.AddReviewComment(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, comment)
}

// GetReview returns a review with its comments
// GET /v1/documents/{id}/reviews/{reviewId}
func (h *WorkflowHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	review, comments, err := h.workflowService.GetReview(r.Context(), r.PathValue("reviewId"))
	if err != nil {
		handleError(w, err)
		return
	}
	if review.DocumentID != r.PathValue("id") {
		handleError(w, domain.ErrNotFound)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"review":   review,
		"comments": comments,
	})
}

func (h *WorkflowHandler) record(action string, err error) {
	if h.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConflict):
		status = "conflict"
	default:
		status = "error"
	}
	h.metrics.RecordTransition(action, status)
}
