package domain

import "time"

// Review is customer feedback on a completed order. One review per order.
type Review struct {
	ID         string
	OrderID    string
	CustomerID string
	DriverID   string
	Rating     int // 1..5
	Comment    string
	CreatedAt  time.Time
}
