package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotless/internal/domain"
	"spotless/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout and price estimates.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
	pricingService  *service.PricingService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService, pricingService *service.PricingService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		pricingService:  pricingService,
	}
}

// CheckoutRequest is the HTTP request body for checking out the cart.
type CheckoutRequest struct {
	CustomerID    string  `json:"customer_id"`
	PaymentMethod string  `json:"payment_method"` // WALLET, CARD
	TimeSlotID    string  `json:"time_slot_id"`
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	DeliveryLat   float64 `json:"delivery_lat"`
	DeliveryLng   float64 `json:"delivery_lng"`
}

// BuyNowRequest is the HTTP request body for a single-service checkout.
type BuyNowRequest struct {
	CheckoutRequest
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResponse is the HTTP response for a checkout.
type CheckoutResponse struct {
	Order          OrderResponse `json:"order"`
	RedirectURL    string        `json:"redirect_url,omitempty"`
	AlreadyExisted bool          `json:"already_existed"`
}

// EstimateRequest is the HTTP request body for a price estimate.
type EstimateRequest struct {
	Items []EstimateItemRequest `json:"items"`
}

// EstimateItemRequest is one requested line in an estimate.
type EstimateItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// EstimateLineResponse is one priced line in an estimate.
type EstimateLineResponse struct {
	ServiceID   string        `json:"service_id"`
	ServiceName string        `json:"service_name"`
	Quantity    int           `json:"quantity"`
	UnitPrice   MoneyResponse `json:"unit_price"`
	LineTotal   MoneyResponse `json:"line_total"`
}

// EstimateResponse is the HTTP response for a price estimate.
type EstimateResponse struct {
	Lines []EstimateLineResponse `json:"lines"`
	Total MoneyResponse          `json:"total"`
}

// Checkout handles POST /v1/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	h.checkout(c, service.CheckoutRequest{
		CustomerID:     req.CustomerID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		TimeSlotID:     req.TimeSlotID,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DeliveryLat:    req.DeliveryLat,
		DeliveryLng:    req.DeliveryLng,
	})
}

// BuyNow handles POST /v1/checkout/buy-now
func (h *CheckoutHandler) BuyNow(c *gin.Context) {
	var req BuyNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	h.checkout(c, service.CheckoutRequest{
		CustomerID:     req.CustomerID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		TimeSlotID:     req.TimeSlotID,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DeliveryLat:    req.DeliveryLat,
		DeliveryLng:    req.DeliveryLng,
		BuyNow: &service.EstimateItem{
			ServiceID: req.ServiceID,
			Quantity:  req.Quantity,
		},
	})
}

func (h *CheckoutHandler) checkout(c *gin.Context, req service.CheckoutRequest) {
	result, err := h.checkoutService.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusCreated
	if result.AlreadyExisted {
		code = http.StatusOK
	}

	respondJSON(c, code, CheckoutResponse{
		Order:          toOrderResponse(result.Order),
		RedirectURL:    result.RedirectURL,
		AlreadyExisted: result.AlreadyExisted,
	})
}

// Estimate handles POST /v1/estimates
func (h *CheckoutHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	items := make([]service.EstimateItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.EstimateItem{ServiceID: item.ServiceID, Quantity: item.Quantity})
	}

	estimate, err := h.pricingService.Estimate(c.Request.Context(), items)
	if err != nil {
		respondError(c, err)
		return
	}

	lines := make([]EstimateLineResponse, 0, len(estimate.Lines))
	for _, line := range estimate.Lines {
		lines = append(lines, EstimateLineResponse{
			ServiceID:   line.ServiceID,
			ServiceName: line.ServiceName,
			Quantity:    line.Quantity,
			UnitPrice:   toMoneyResponse(line.UnitPrice),
			LineTotal:   toMoneyResponse(line.LineTotal),
		})
	}

	respondJSON(c, http.StatusOK, EstimateResponse{
		Lines: lines,
		Total: toMoneyResponse(estimate.Total),
	})
}
