package repository

import (
	"context"
	"time"

	"spotless/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order with its frozen items.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByIdempotencyKey retrieves the order created under a checkout
	// idempotency key. Returns nil if no such order exists.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)

	// TransitionStatus applies from → to only if the order is still in the
	// from status. Returns ErrConflict if another transition won. The
	// timestamp lands in the column matching the target status.
	TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error

	// CancelTransition moves the order to CANCELLED from the given status,
	// recording when and why. Returns ErrConflict if the status moved.
	CancelTransition(ctx context.Context, id string, from domain.OrderStatus, at time.Time, reason string) error

	// AssignDriver claims the order for a driver iff no driver holds it.
	// Exactly one concurrent caller succeeds; the rest get ErrConflict.
	AssignDriver(ctx context.Context, orderID, driverID string) error

	// IncrementDispatchAttempts bumps the failed-sweep counter and returns
	// the new value.
	IncrementDispatchAttempts(ctx context.Context, orderID string) (int, error)

	// ListUnassignedConfirmed returns confirmed orders with no driver and
	// fewer than maxAttempts failed sweeps, oldest first.
	ListUnassignedConfirmed(ctx context.Context, maxAttempts int) ([]*domain.Order, error)

	// ListDeliveredBefore returns delivered orders whose delivery happened
	// before the cutoff, for automatic completion.
	ListDeliveredBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)

	// ListAwaitingPaymentBefore returns awaiting-payment orders created
	// before the cutoff, whose gateway callback never arrived.
	ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
}
