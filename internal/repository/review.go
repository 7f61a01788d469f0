package repository

import (
	"context"

	"spotless/internal/domain"
)

// ReviewRepository defines the persistence operations for reviews.
type ReviewRepository interface {
	// Create persists a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByOrderID retrieves the review for an order.
	// Returns nil if the order has not been reviewed.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Review, error)
}
