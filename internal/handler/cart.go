package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotless/internal/domain"
	"spotless/internal/service"
)

// CartHandler handles HTTP requests for carts.
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddItemRequest is the HTTP request body for adding a cart item.
type AddItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// CartItemResponse is one cart line on the wire.
type CartItemResponse struct {
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Quantity    int     `json:"quantity"`
	MaxWeightKg float64 `json:"max_weight_kg"`
}

// CartResponse is the HTTP response for cart operations.
type CartResponse struct {
	CustomerID    string             `json:"customer_id"`
	Items         []CartItemResponse `json:"items"`
	TotalWeightKg float64            `json:"total_weight_kg"`
}

func toCartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{
			ServiceID:   item.ServiceID,
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			MaxWeightKg: item.MaxWeightKg,
		})
	}
	return CartResponse{
		CustomerID:    cart.CustomerID,
		Items:         items,
		TotalWeightKg: cart.TotalWeightKg(),
	}
}

// GetCart handles GET /v1/customers/:customerId/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cartService.Get(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCartResponse(cart))
}

// AddItem handles POST /v1/customers/:customerId/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), c.Param("customerId"), req.ServiceID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCartResponse(cart))
}

// RemoveItem handles DELETE /v1/customers/:customerId/cart/items/:serviceId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.cartService.RemoveItem(c.Request.Context(), c.Param("customerId"), c.Param("serviceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCartResponse(cart))
}

// ClearCart handles DELETE /v1/customers/:customerId/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), c.Param("customerId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
