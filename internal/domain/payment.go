package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusCompleted     PaymentStatus = "COMPLETED"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusVoided        PaymentStatus = "VOIDED"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
)

// Payment represents the payment record for an order. Wallet top-ups also
// produce a payment with no order attached.
type Payment struct {
	ID                   string
	OrderID              string // empty for wallet top-ups
	CustomerID           string
	Amount               Money
	Method               PaymentMethod
	Status               PaymentStatus
	TransactionReference string
	PaymentDate          time.Time
}
