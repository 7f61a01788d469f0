package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spotless/internal/domain"
	"spotless/internal/repository"
	"spotless/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InsufficientBalanceResponse carries the amounts the client needs to show
// a top-up prompt.
type InsufficientBalanceResponse struct {
	Error     string        `json:"error"`
	Required  MoneyResponse `json:"required"`
	Available MoneyResponse `json:"available"`
}

// MoneyResponse is the wire form of a monetary amount.
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency,
	}
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusPaymentRequired, InsufficientBalanceResponse{
			Error:     "insufficient wallet balance",
			Required:  toMoneyResponse(insufficient.Required),
			Available: toMoneyResponse(insufficient.Available),
		})
		return
	}

	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var checkoutFailed *service.CheckoutFailedError
	if errors.As(err, &checkoutFailed) {
		if checkoutFailed.PaymentOutcomeUnknown {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidServiceID),
		errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrCancellationNotAllowed),
		errors.Is(err, service.ErrOrderAlreadyAssigned),
		errors.Is(err, service.ErrNoActiveOffer),
		errors.Is(err, service.ErrOrderAlreadyReviewed),
		errors.Is(err, service.ErrOrderNotCompleted),
		errors.Is(err, service.ErrTimeSlotUnavailable),
		errors.Is(err, service.ErrDispatchInProgress),
		errors.Is(err, service.ErrCartBusy),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrDriverNotAssigned),
		errors.Is(err, service.ErrReviewNotAllowed):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoDriverAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
