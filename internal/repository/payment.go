package repository

import (
	"context"

	"spotless/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByOrderID retrieves the payment for an order.
	// Returns nil if no payment exists for the order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)

	// GetByTransactionReference retrieves a payment by its gateway
	// transaction reference. Returns nil if no payment matches.
	GetByTransactionReference(ctx context.Context, ref string) (*domain.Payment, error)

	// UpdateStatus sets the status of a payment.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error

	// UpdateStatusIf sets the status only if the payment is still in the
	// from status. Reports whether the row changed, making duplicate
	// gateway callbacks observable as no-ops.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error)
}
