package handler

import (
	"log/slog"
	"net/http"
	"time"

	"messagesearch/internal/auth"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/httputil"
	"messagesearch/internal/metrics"
)

// SearchHandler handles search and answer HTTP requests
type SearchHandler struct {
	searchService services.SearchService
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService services.SearchService, m *metrics.Metrics, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		metrics:       m,
		logger:        logger,
	}
}

type searchRequest struct {
	Query        string                `json:"query"`
	Limit        int                   `json:"limit,omitempty"`
	Offset       int                   `json:"offset,omitempty"`
	Weights      *models.HybridWeights `json:"weights,omitempty"`
	LanguageCode string                `json:"languageCode,omitempty"`
}

// Search runs a hybrid paragraph search
// POST /v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	var req searchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	results, err := h.searchService.Search(r.Context(), models.SearchOptions{
		Query:        req.Query,
		Limit:        req.Limit,
		Offset:       req.Offset,
		Weights:      req.Weights,
		LanguageCode: req.LanguageCode,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSearch("error", 0, time.Since(start))
		}
		handleError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSearch("success", len(results.Results), time.Since(start))
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// Answer synthesizes an answer over the top search hits
// POST /v1/answer
func (h *SearchHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleViewer); !ok {
		return
	}

	var req services.AnswerRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.searchService.Answer(r.Context(), &req)
	if err != nil {
		if h.metrics != nil {
			h.metrics.AnswerRequestsTotal.WithLabelValues("error").Inc()
		}
		handleError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.AnswerRequestsTotal.WithLabelValues("success").Inc()
	}

	httputil.RespondJSON(w, http.StatusOK, answer)
}
