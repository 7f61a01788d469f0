package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spotless/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	settlementService *service.SettlementService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementService *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlementService: settlementService}
}

// GatewayCallbackRequest is the HTTP request body posted by the payment
// gateway when a charge settles or fails.
type GatewayCallbackRequest struct {
	TransactionReference string `json:"transaction_reference"`
	Success              bool   `json:"success"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID                   string        `json:"id"`
	OrderID              string        `json:"order_id,omitempty"`
	CustomerID           string        `json:"customer_id"`
	Amount               MoneyResponse `json:"amount"`
	Method               string        `json:"method"`
	Status               string        `json:"status"`
	TransactionReference string        `json:"transaction_reference,omitempty"`
	PaymentDate          string        `json:"payment_date"`
}

// HandleCallback handles POST /v1/payments/callback
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	var req GatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.settlementService.HandleCallback(c.Request.Context(), req.TransactionReference, req.Success)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:                   payment.ID,
		OrderID:              payment.OrderID,
		CustomerID:           payment.CustomerID,
		Amount:               toMoneyResponse(payment.Amount),
		Method:               string(payment.Method),
		Status:               string(payment.Status),
		TransactionReference: payment.TransactionReference,
		PaymentDate:          payment.PaymentDate.Format(time.RFC3339),
	})
}

// GetOrderPayment handles GET /v1/orders/:id/payment
func (h *PaymentHandler) GetOrderPayment(c *gin.Context) {
	payment, err := h.settlementService.GetPaymentForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:                   payment.ID,
		OrderID:              payment.OrderID,
		CustomerID:           payment.CustomerID,
		Amount:               toMoneyResponse(payment.Amount),
		Method:               string(payment.Method),
		Status:               string(payment.Status),
		TransactionReference: payment.TransactionReference,
		PaymentDate:          payment.PaymentDate.Format(time.RFC3339),
	})
}
