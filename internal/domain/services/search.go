package services

import (
	"context"

	"messagesearch/internal/domain/models"
)

// AnswerRequest asks for a synthesized answer over the top search hits.
type AnswerRequest struct {
	Query        string                `json:"query"`
	Limit        int                   `json:"limit,omitempty"`
	Weights      *models.HybridWeights `json:"weights,omitempty"`
	LanguageCode string                `json:"languageCode,omitempty"`
}

// SearchService blends lexical and vector paragraph scores into a ranked,
// paginated result set and layers answer generation on top.
type SearchService interface {
	// Search runs both legs, merges scores under the weighting policy and
	// paginates the deterministic ordering.
	Search(ctx context.Context, opts models.SearchOptions) (*models.SearchResults, error)

	// Answer searches, feeds the top hits to the chat gateway as context
	// and returns the generated text with one citation per hit.
	Answer(ctx context.Context, req *AnswerRequest) (*models.Answer, error)
}
