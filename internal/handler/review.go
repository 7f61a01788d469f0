package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spotless/internal/service"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// SubmitReviewRequest is the HTTP request body for submitting a review.
type SubmitReviewRequest struct {
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

// ReviewResponse is the HTTP response for review operations.
type ReviewResponse struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	DriverID   string `json:"driver_id,omitempty"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// SubmitReview handles POST /v1/orders/:id/review
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), service.SubmitReviewRequest{
		OrderID:    c.Param("id"),
		CustomerID: req.CustomerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ReviewResponse{
		ID:         review.ID,
		OrderID:    review.OrderID,
		CustomerID: review.CustomerID,
		DriverID:   review.DriverID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt.Format(time.RFC3339),
	})
}

// GetReview handles GET /v1/orders/:id/review
func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReviewResponse{
		ID:         review.ID,
		OrderID:    review.OrderID,
		CustomerID: review.CustomerID,
		DriverID:   review.DriverID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt.Format(time.RFC3339),
	})
}
