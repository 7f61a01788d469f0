package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// ReviewService handles post-completion customer feedback. One review per
// order, from the order's own customer, only after completion.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repository.ReviewRepository, orderRepo repository.OrderRepository) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
	}
}

// SubmitReviewRequest contains the parameters for submitting a review.
type SubmitReviewRequest struct {
	OrderID    string
	CustomerID string
	Rating     int
	Comment    string
}

// Submit records a review for a completed order.
func (s *ReviewService) Submit(ctx context.Context, req SubmitReviewRequest) (*domain.Review, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidOrderID
	}
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != req.CustomerID {
		return nil, ErrReviewNotAllowed
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, ErrOrderNotCompleted
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		DriverID:   order.DriverID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now(),
	}

	// The unique order constraint is the dedupe record; a racing second
	// review loses there, not on a read-then-write check.
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrOrderAlreadyReviewed
		}
		return nil, err
	}

	return review, nil
}

// GetByOrder returns the review for an order, if any.
func (s *ReviewService) GetByOrder(ctx context.Context, orderID string) (*domain.Review, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	review, err := s.reviewRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, repository.ErrNotFound
	}
	return review, nil
}
