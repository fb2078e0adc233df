// Package backfill feeds the vector index: a background worker scans
// paragraphs without embeddings, embeds them in batches and upserts the
// vectors. The job is append/upsert-only and commutes with concurrent reads;
// unembedded paragraphs simply stay out of the vector leg until a pass
// catches them.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"messagesearch/internal/domain/repositories"
	"messagesearch/internal/gateway"
	"messagesearch/internal/metrics"
)

// Worker periodically backfills paragraph embeddings.
type Worker struct {
	paragraphRepo repositories.ParagraphRepository
	embedder      gateway.Embedder
	metrics       *metrics.Metrics
	batchSize     int
	interval      time.Duration
	logger        *slog.Logger
}

// NewWorker creates a backfill worker. interval 0 means Run exits
// immediately; RunOnce still works for one-shot use (cmd/seed).
func NewWorker(
	paragraphRepo repositories.ParagraphRepository,
	embedder gateway.Embedder,
	m *metrics.Metrics,
	batchSize int,
	interval time.Duration,
	logger *slog.Logger,
) *Worker {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Worker{
		paragraphRepo: paragraphRepo,
		embedder:      embedder,
		metrics:       m,
		batchSize:     batchSize,
		interval:      interval,
		logger:        logger,
	}
}

// Run loops until the context is cancelled, executing one pass per tick.
// Errors are logged, never fatal: the next tick retries.
func (w *Worker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := w.RunOnce(ctx); err != nil {
				w.logger.Warn("embedding backfill pass failed", "error", err)
			} else if n > 0 {
				w.logger.Info("embedding backfill pass complete", "embedded", n)
			}
		}
	}
}

// RunOnce drains all paragraphs missing embeddings, one batch at a time, and
// returns the number embedded.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	total := 0
	for {
		missing, err := w.paragraphRepo.ListMissingEmbeddings(ctx, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("list paragraphs missing embeddings: %w", err)
		}
		if len(missing) == 0 {
			return total, nil
		}

		texts := make([]string, len(missing))
		for i, p := range missing {
			text := p.Body
			if p.Heading != nil && *p.Heading != "" {
				text = *p.Heading + "\n" + text
			}
			texts[i] = text
		}

		vectors, err := w.embedder.Embed(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(missing) {
			return total, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
		}

		for i, p := range missing {
			if err := w.paragraphRepo.SetEmbedding(ctx, p.ID, vectors[i]); err != nil {
				return total, fmt.Errorf("store embedding for paragraph %s: %w", p.ID, err)
			}
			total++
		}
		w.metrics.AddEmbeddingsBackfilled(len(missing))

		if len(missing) < w.batchSize {
			return total, nil
		}
	}
}
