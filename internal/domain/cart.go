package domain

import "time"

// CartItem is a single prospective line in a customer's cart.
type CartItem struct {
	ID          string
	CartID      string
	ServiceID   string
	ServiceName string
	Quantity    int
	MaxWeightKg float64
	AddedAt     time.Time
}

// Cart is the customer-scoped collection of items prior to checkout.
// Exactly one cart exists per customer; it is created lazily on first add.
type Cart struct {
	ID             string
	CustomerID     string
	Items          []CartItem
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// TotalWeightKg derives the cart weight from item max weights and quantities.
// Recomputed on every read, never cached.
func (c *Cart) TotalWeightKg() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.MaxWeightKg * float64(item.Quantity)
	}
	return total
}

// FindItem returns the line for a service, or nil if absent.
func (c *Cart) FindItem(serviceID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ServiceID == serviceID {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
