package domain

import "time"

// OrderStatus represents the current status of an order.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusDriverAssigned  OrderStatus = "DRIVER_ASSIGNED"
	OrderStatusPickedUp        OrderStatus = "PICKED_UP"
	OrderStatusInTransit       OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// PaymentMethod represents how an order is paid.
type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodCard   PaymentMethod = "CARD"
)

// orderTransitions is the set of valid lifecycle transitions. Cancelled and
// Failed are handled separately: any non-terminal state may fail, and
// cancellation is allowed only before pickup.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingPayment: {OrderStatusConfirmed, OrderStatusFailed},
	OrderStatusConfirmed:       {OrderStatusDriverAssigned},
	OrderStatusDriverAssigned:  {OrderStatusPickedUp},
	OrderStatusPickedUp:        {OrderStatusInTransit},
	OrderStatusInTransit:       {OrderStatusDelivered},
	OrderStatusDelivered:       {OrderStatusCompleted},
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether from → to is a valid lifecycle transition.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == OrderStatusFailed {
		return true
	}
	if to == OrderStatusCancelled {
		return CanCancel(from)
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in the given status may still be
// cancelled. Cancellation after pickup requires an exception-approval path
// outside this engine.
func CanCancel(from OrderStatus) bool {
	switch from {
	case OrderStatusAwaitingPayment, OrderStatusConfirmed, OrderStatusDriverAssigned:
		return true
	}
	return false
}

// OrderItem is a price-frozen copy of a cart line. Unit prices are captured
// at checkout and never recomputed from the live catalog.
type OrderItem struct {
	ID          string
	OrderID     string
	ServiceID   string
	ServiceName string
	Quantity    int
	UnitPrice   Money
	LineTotal   Money
}

// Order represents a committed laundry order.
type Order struct {
	ID               string
	CustomerID       string
	DriverID         string // empty until a driver claims the order
	Items            []OrderItem
	PickupLat        float64
	PickupLng        float64
	DeliveryLat      float64
	DeliveryLng      float64
	TimeSlotID       string
	ScheduledDate    time.Time
	TotalAmount      Money
	PaymentMethod    PaymentMethod
	Status           OrderStatus
	IdempotencyKey   string
	DispatchAttempts int
	CreatedAt        time.Time
	DeliveredAt      time.Time
	CompletedAt      time.Time
	CancelledAt      time.Time
	CancelReason     string
}
