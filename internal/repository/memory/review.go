package memory

import (
	"context"
	"fmt"
	"time"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
	"messagesearch/internal/domain/repositories"
)

// MemoryReviewRepository implements ReviewRepository over a Store.
type MemoryReviewRepository struct {
	store *Store
}

// NewReviewRepository creates an in-memory review repository.
func NewReviewRepository(store *Store) repositories.ReviewRepository {
	return &MemoryReviewRepository{store: store}
}

// Create inserts a new review request
func (r *MemoryReviewRepository) Create(ctx context.Context, review *models.ReviewRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.reviews[review.ID]; ok {
		return fmt.Errorf("review %s: %w", review.ID, domain.ErrConflict)
	}
	r.store.reviews[review.ID] = *review
	return nil
}

// GetByID retrieves a review request by ID
func (r *MemoryReviewRepository) GetByID(ctx context.Context, id string) (*models.ReviewRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	review, ok := r.store.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	return &review, nil
}

// UpdateStatus moves a review to a new status
func (r *MemoryReviewRepository) UpdateStatus(ctx context.Context, id string, status models.ReviewStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	review, ok := r.store.reviews[id]
	if !ok {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	review.Status = status
	review.UpdatedAt = time.Now().UTC()
	r.store.reviews[id] = review
	return nil
}

// AddComment appends a review comment
func (r *MemoryReviewRepository) AddComment(ctx context.Context, comment *models.ReviewComment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.reviews[comment.ReviewID]; !ok {
		return fmt.Errorf("review %s: %w", comment.ReviewID, domain.ErrNotFound)
	}
	r.store.comments[comment.ReviewID] = append(r.store.comments[comment.ReviewID], *comment)
	return nil
}

// ListComments returns a review's comments oldest first
func (r *MemoryReviewRepository) ListComments(ctx context.Context, reviewID string) ([]models.ReviewComment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	comments := append([]models.ReviewComment{}, r.store.comments[reviewID]...)
	return comments, nil
}
