package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotless/internal/domain"
	"spotless/internal/service"
)

// WalletHandler handles HTTP requests for wallets.
type WalletHandler struct {
	walletService *service.WalletService
	currency      string
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService, currency string) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		currency:      currency,
	}
}

// TopUpRequest is the HTTP request body for a wallet top-up.
type TopUpRequest struct {
	Amount string `json:"amount"`
}

// BalanceResponse is the HTTP response for a balance query.
type BalanceResponse struct {
	CustomerID string        `json:"customer_id"`
	Balance    MoneyResponse `json:"balance"`
}

// TopUpResponse is the HTTP response for a top-up.
type TopUpResponse struct {
	PaymentID string        `json:"payment_id"`
	Balance   MoneyResponse `json:"balance"`
}

// GetBalance handles GET /v1/customers/:customerId/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	customerID := c.Param("customerId")

	balance, err := h.walletService.GetBalance(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		CustomerID: customerID,
		Balance:    toMoneyResponse(balance),
	})
}

// TopUp handles POST /v1/customers/:customerId/wallet/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	amount, err := domain.NewMoneyFromString(req.Amount, h.currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
		return
	}

	customerID := c.Param("customerId")
	payment, err := h.walletService.TopUp(c.Request.Context(), customerID, amount, domain.PaymentMethodCard)
	if err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TopUpResponse{
		PaymentID: payment.ID,
		Balance:   toMoneyResponse(balance),
	})
}
