package tests

import (
	"context"
	"errors"
	"testing"

	"spotless/internal/domain"
	"spotless/internal/repository"
	"spotless/internal/service"
)

func newReviewFixture(t *testing.T) (*service.ReviewService, *MockOrderRepository) {
	t.Helper()
	orderRepo := NewMockOrderRepository()
	return service.NewReviewService(NewMockReviewRepository(), orderRepo), orderRepo
}

func completedOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: "cust-1",
		DriverID:   "driver-1",
		Status:     domain.OrderStatusCompleted,
	}
}

func TestReview_SubmitOnCompletedOrder(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	orderRepo.AddOrder(completedOrder("order-1"))

	review, err := reviewService.Submit(context.Background(), service.SubmitReviewRequest{
		OrderID:    "order-1",
		CustomerID: "cust-1",
		Rating:     4,
		Comment:    "clothes came back folded",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if review.Rating != 4 {
		t.Errorf("rating = %d, want 4", review.Rating)
	}
	if review.DriverID != "driver-1" {
		t.Errorf("driver = %q, want driver-1 carried from the order", review.DriverID)
	}

	got, err := reviewService.GetByOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != review.ID {
		t.Errorf("fetched review %q, want %q", got.ID, review.ID)
	}
}

func TestReview_SecondReviewRejected(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	orderRepo.AddOrder(completedOrder("order-1"))
	req := service.SubmitReviewRequest{OrderID: "order-1", CustomerID: "cust-1", Rating: 5}

	if _, err := reviewService.Submit(context.Background(), req); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := reviewService.Submit(context.Background(), req); !errors.Is(err, service.ErrOrderAlreadyReviewed) {
		t.Errorf("expected ErrOrderAlreadyReviewed, got %v", err)
	}
}

func TestReview_IncompleteOrderRejected(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	order := completedOrder("order-1")
	order.Status = domain.OrderStatusDelivered
	orderRepo.AddOrder(order)

	_, err := reviewService.Submit(context.Background(), service.SubmitReviewRequest{
		OrderID: "order-1", CustomerID: "cust-1", Rating: 5,
	})
	if !errors.Is(err, service.ErrOrderNotCompleted) {
		t.Errorf("expected ErrOrderNotCompleted, got %v", err)
	}
}

func TestReview_StrangerRejected(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	orderRepo.AddOrder(completedOrder("order-1"))

	_, err := reviewService.Submit(context.Background(), service.SubmitReviewRequest{
		OrderID: "order-1", CustomerID: "cust-stranger", Rating: 5,
	})
	if !errors.Is(err, service.ErrReviewNotAllowed) {
		t.Errorf("expected ErrReviewNotAllowed, got %v", err)
	}
}

func TestReview_RatingBounds(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	orderRepo.AddOrder(completedOrder("order-1"))

	for _, rating := range []int{0, 6, -1} {
		_, err := reviewService.Submit(context.Background(), service.SubmitReviewRequest{
			OrderID: "order-1", CustomerID: "cust-1", Rating: rating,
		})
		if !errors.Is(err, service.ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestReview_GetMissing(t *testing.T) {
	reviewService, orderRepo := newReviewFixture(t)
	orderRepo.AddOrder(completedOrder("order-1"))

	if _, err := reviewService.GetByOrder(context.Background(), "order-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
