package repositories

import (
	"context"

	"messagesearch/internal/domain/models"
)

// ReviewRepository persists review requests and their comments.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.ReviewRequest) error
	GetByID(ctx context.Context, id string) (*models.ReviewRequest, error)

	// UpdateStatus moves a review to a terminal status within the
	// transition transaction.
	UpdateStatus(ctx context.Context, id string, status models.ReviewStatus) error

	AddComment(ctx context.Context, comment *models.ReviewComment) error
	ListComments(ctx context.Context, reviewID string) ([]models.ReviewComment, error)
}
