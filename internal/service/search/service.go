// Package search implements hybrid paragraph retrieval: a ranked full-text
// leg and a cosine-similarity vector leg run concurrently, scores blend
// under configurable weights, and an answer layer feeds the top hits to a
// chat provider with citations back to every hit.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/gateway"
	"messagesearch/internal/searchcfg"
)

const snippetPrefixLen = 200

// searchService implements the SearchService interface
type searchService struct {
	paragraphRepo repositories.ParagraphRepository
	embedder      gateway.Embedder
	chat          gateway.ChatProvider
	registry      *searchcfg.Registry
	logger        *slog.Logger
}

// NewService creates a new search service.
func NewService(
	paragraphRepo repositories.ParagraphRepository,
	embedder gateway.Embedder,
	chat gateway.ChatProvider,
	registry *searchcfg.Registry,
	logger *slog.Logger,
) services.SearchService {
	return &searchService{
		paragraphRepo: paragraphRepo,
		embedder:      embedder,
		chat:          chat,
		registry:      registry,
		logger:        logger,
	}
}

// merged accumulates both score legs for one paragraph.
type merged struct {
	hit         models.ParagraphHit
	textScore   float64
	vectorScore float64
}

// Search runs both legs concurrently, merges the candidate sets and
// paginates the deterministic ordering in memory.
func (s *searchService) Search(ctx context.Context, opts models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults(s.registry.DefaultWeights())
	if opts.LexicalPool <= 0 {
		opts.LexicalPool = s.registry.LexicalPool()
	}
	if opts.VectorPool <= 0 {
		opts.VectorPool = s.registry.VectorPool()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if opts.LanguageCode != "" && !searchcfg.ValidLanguageCode(opts.LanguageCode) {
		return nil, fmt.Errorf("%w: invalid language code %q", domain.ErrValidation, opts.LanguageCode)
	}

	// Embed the query first: a failed embedding degrades the search to
	// lexical-only instead of failing the request.
	var queryEmbedding []float32
	if opts.Weights.Vector > 0 {
		vectors, err := s.embedder.Embed(ctx, []string{opts.Query})
		if err != nil || len(vectors) == 0 {
			s.logger.Warn("query embedding failed, degrading to lexical-only", "error", err)
		} else {
			queryEmbedding = vectors[0]
		}
	}

	var lexical, vector []models.ParagraphHit
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.paragraphRepo.LexicalSearch(gCtx, repositories.LexicalQuery{
			Query:        opts.Query,
			FTSConfig:    s.registry.FTSConfig(opts.LanguageCode),
			LanguageCode: opts.LanguageCode,
			Pool:         opts.LexicalPool,
		})
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		lexical = hits
		return nil
	})
	if queryEmbedding != nil {
		g.Go(func() error {
			hits, err := s.paragraphRepo.VectorSearch(gCtx, repositories.VectorQuery{
				Embedding:    queryEmbedding,
				LanguageCode: opts.LanguageCode,
				Pool:         opts.VectorPool,
			})
			if err != nil {
				return fmt.Errorf("vector search: %w", err)
			}
			vector = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make(map[string]*merged, len(lexical)+len(vector))
	for _, hit := range lexical {
		candidates[hit.ParagraphID] = &merged{hit: hit, textScore: hit.Score}
	}
	for _, hit := range vector {
		if m, ok := candidates[hit.ParagraphID]; ok {
			m.vectorScore = hit.Score
			continue
		}
		candidates[hit.ParagraphID] = &merged{hit: hit, vectorScore: hit.Score}
	}

	hits := make([]models.SearchHit, 0, len(candidates))
	for _, m := range candidates {
		// A paragraph stays in the result set as long as either leg matched,
		// even when the matching leg carries weight zero; such hits rank at
		// the tail with a zero final score.
		if m.textScore <= 0 && m.vectorScore <= 0 {
			continue
		}
		final := opts.Weights.Text*m.textScore + opts.Weights.Vector*m.vectorScore
		hits = append(hits, models.SearchHit{
			DocumentID:   m.hit.DocumentID,
			ParagraphID:  m.hit.ParagraphID,
			SnapshotID:   m.hit.SnapshotID,
			LanguageCode: m.hit.LanguageCode,
			Title:        m.hit.Title,
			Snippet:      snippet(m.hit),
			TextScore:    m.textScore,
			VectorScore:  m.vectorScore,
			FinalScore:   final,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].FinalScore != hits[j].FinalScore {
			return hits[i].FinalScore > hits[j].FinalScore
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ParagraphID < hits[j].ParagraphID
	})

	total := len(hits)
	page := paginate(hits, opts.Offset, opts.Limit)

	return &models.SearchResults{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		Results: page,
	}, nil
}

// Answer runs a search and synthesizes an answer over the hits. Every
// retrieved hit becomes a citation.
func (s *searchService) Answer(ctx context.Context, req *services.AnswerRequest) (*models.Answer, error) {
	results, err := s.Search(ctx, models.SearchOptions{
		Query:        req.Query,
		Limit:        req.Limit,
		Weights:      req.Weights,
		LanguageCode: req.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	if len(results.Results) == 0 {
		return &models.Answer{
			Answer:    "",
			Citations: []models.Citation{},
		}, nil
	}

	passages := make([]string, 0, len(results.Results))
	citations := make([]models.Citation, 0, len(results.Results))
	for _, hit := range results.Results {
		excerpt := hit.Snippet
		if excerpt == "" {
			excerpt = hit.Title
		}
		passages = append(passages, excerpt)
		citations = append(citations, models.Citation{
			DocumentID:   hit.DocumentID,
			ParagraphID:  hit.ParagraphID,
			SnapshotID:   hit.SnapshotID,
			LanguageCode: hit.LanguageCode,
			Score:        hit.FinalScore,
			Excerpt:      excerpt,
		})
	}

	generated, err := s.chat.Generate(ctx, req.Query, passages)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Answer:     generated.Text,
		Citations:  citations,
		TokensUsed: generated.TokensUsed,
	}, nil
}

// snippet prefers the lexical headline, then a body prefix, then the title.
func snippet(hit models.ParagraphHit) string {
	if hit.Snippet != "" {
		return hit.Snippet
	}
	if hit.Body != "" {
		runes := []rune(hit.Body)
		if len(runes) > snippetPrefixLen {
			return string(runes[:snippetPrefixLen])
		}
		return hit.Body
	}
	return hit.Title
}

func paginate(hits []models.SearchHit, offset, limit int) []models.SearchHit {
	if offset >= len(hits) {
		return []models.SearchHit{}
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}
