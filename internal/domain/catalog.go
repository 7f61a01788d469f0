package domain

import "time"

// Service is a catalog entry: a purchasable laundry service with its current
// unit price. The engine reads the catalog; it never writes it.
type Service struct {
	ID          string
	Name        string
	Description string
	UnitPrice   Money
	MaxWeightKg float64
}

// TimeSlot is a bookable pickup window. The engine only validates existence
// and remaining capacity.
type TimeSlot struct {
	ID            string
	ScheduledDate time.Time
	Capacity      int
	BookedCount   int
}

// HasCapacity reports whether the slot can take another order.
func (t *TimeSlot) HasCapacity() bool {
	return t.BookedCount < t.Capacity
}
