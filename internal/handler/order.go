package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spotless/internal/domain"
	"spotless/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemResponse is one frozen order line on the wire.
type OrderItemResponse struct {
	ServiceID   string        `json:"service_id"`
	ServiceName string        `json:"service_name"`
	Quantity    int           `json:"quantity"`
	UnitPrice   MoneyResponse `json:"unit_price"`
	LineTotal   MoneyResponse `json:"line_total"`
}

// OrderResponse is the HTTP response for order operations.
type OrderResponse struct {
	ID               string              `json:"id"`
	CustomerID       string              `json:"customer_id"`
	DriverID         string              `json:"driver_id,omitempty"`
	Items            []OrderItemResponse `json:"items"`
	PickupLat        float64             `json:"pickup_lat"`
	PickupLng        float64             `json:"pickup_lng"`
	DeliveryLat      float64             `json:"delivery_lat"`
	DeliveryLng      float64             `json:"delivery_lng"`
	TimeSlotID       string              `json:"time_slot_id"`
	ScheduledDate    string              `json:"scheduled_date"`
	Total            MoneyResponse       `json:"total"`
	PaymentMethod    string              `json:"payment_method"`
	Status           string              `json:"status"`
	DispatchAttempts int                 `json:"dispatch_attempts"`
	CreatedAt        string              `json:"created_at"`
	DeliveredAt      string              `json:"delivered_at,omitempty"`
	CompletedAt      string              `json:"completed_at,omitempty"`
	CancelledAt      string              `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ServiceID:   item.ServiceID,
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			UnitPrice:   toMoneyResponse(item.UnitPrice),
			LineTotal:   toMoneyResponse(item.LineTotal),
		})
	}

	resp := OrderResponse{
		ID:               order.ID,
		CustomerID:       order.CustomerID,
		DriverID:         order.DriverID,
		Items:            items,
		PickupLat:        order.PickupLat,
		PickupLng:        order.PickupLng,
		DeliveryLat:      order.DeliveryLat,
		DeliveryLng:      order.DeliveryLng,
		TimeSlotID:       order.TimeSlotID,
		ScheduledDate:    order.ScheduledDate.Format(time.RFC3339),
		Total:            toMoneyResponse(order.TotalAmount),
		PaymentMethod:    string(order.PaymentMethod),
		Status:           string(order.Status),
		DispatchAttempts: order.DispatchAttempts,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}

	if !order.DeliveredAt.IsZero() {
		resp.DeliveredAt = order.DeliveredAt.Format(time.RFC3339)
	}
	if !order.CompletedAt.IsZero() {
		resp.CompletedAt = order.CompletedAt.Format(time.RFC3339)
	}
	if !order.CancelledAt.IsZero() {
		resp.CancelledAt = order.CancelledAt.Format(time.RFC3339)
		resp.CancelReason = order.CancelReason
	}

	return resp
}

// MilestoneRequest is the HTTP request body for reporting a milestone.
type MilestoneRequest struct {
	DriverID  string `json:"driver_id"`
	Milestone string `json:"milestone"` // PICKED_UP, IN_TRANSIT, DELIVERED
}

// CancelOrderRequest is the HTTP request body for cancelling an order.
type CancelOrderRequest struct {
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason,omitempty"`
}

// ConfirmDeliveryRequest is the HTTP request body for confirming receipt.
type ConfirmDeliveryRequest struct {
	CustomerID string `json:"customer_id"`
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ReportMilestone handles POST /v1/orders/:id/milestone
func (h *OrderHandler) ReportMilestone(c *gin.Context) {
	var req MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.ReportMilestone(c.Request.Context(), c.Param("id"), req.DriverID, domain.OrderStatus(req.Milestone))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// CancelOrder handles POST /v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "cancelled by customer"
	}

	order, err := h.orderService.Cancel(c.Request.Context(), req.CustomerID, c.Param("id"), reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ConfirmDelivery handles POST /v1/orders/:id/confirm-delivery
func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	var req ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.ConfirmDelivery(c.Request.Context(), req.CustomerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}
