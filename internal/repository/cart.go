package repository

import (
	"context"

	"spotless/internal/domain"
)

// CartRepository defines the persistence operations for carts.
// Callers serialize mutations per customer; the repository itself only
// guarantees single-statement atomicity.
type CartRepository interface {
	// Create persists a new empty cart.
	Create(ctx context.Context, cart *domain.Cart) error

	// GetByCustomerID retrieves a customer's cart with its items.
	GetByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error)

	// AddItem appends a new line to a cart.
	AddItem(ctx context.Context, item *domain.CartItem) error

	// UpdateItemQuantity sets the quantity of an existing line.
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error

	// RemoveItem deletes the line for a service. Removing an absent line
	// is a no-op.
	RemoveItem(ctx context.Context, cartID, serviceID string) error

	// ClearItems deletes all lines from a cart.
	ClearItems(ctx context.Context, cartID string) error

	// Touch updates the cart's last-modified timestamp.
	Touch(ctx context.Context, cartID string) error
}
