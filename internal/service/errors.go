package service

import (
	"errors"
	"fmt"

	"spotless/internal/domain"
)

var (
	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidServiceID is returned when service ID is empty.
	ErrInvalidServiceID = errors.New("invalid service id")

	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidQuantity is returned when an item quantity is below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrServiceNotFound is returned when a serviceId is unknown to the catalog.
	ErrServiceNotFound = errors.New("service not found in catalog")

	// ErrEmptyCart is returned when checkout finds no items to price.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNoItems is returned when a price estimate is requested with no items.
	ErrNoItems = errors.New("no items to estimate")

	// ErrCartBusy is returned when another mutation holds the customer's
	// cart lock.
	ErrCartBusy = errors.New("cart is being modified by another request")

	// ErrTimeSlotUnavailable is returned when the chosen time slot is
	// missing or has no remaining capacity.
	ErrTimeSlotUnavailable = errors.New("time slot unavailable")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidStateTransition is returned when an order lifecycle
	// transition is not permitted from the current status.
	ErrInvalidStateTransition = errors.New("invalid order state transition")

	// ErrCancellationNotAllowed is returned when cancellation is requested
	// after pickup; that path needs exception approval outside this engine.
	ErrCancellationNotAllowed = errors.New("order can no longer be cancelled")

	// ErrOrderAlreadyAssigned is returned to drivers who lose the claim race.
	ErrOrderAlreadyAssigned = errors.New("order already assigned to another driver")

	// ErrNoActiveOffer is returned when a driver responds to an offer they
	// do not hold.
	ErrNoActiveOffer = errors.New("no active offer for this driver")

	// ErrNoDriverAvailable is returned when dispatch exhausts its candidates.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrDispatchInProgress is returned when another dispatcher already
	// holds an open offer for the order.
	ErrDispatchInProgress = errors.New("dispatch already in progress")

	// ErrDriverNotAssigned is returned when a milestone is reported by a
	// driver who does not hold the order.
	ErrDriverNotAssigned = errors.New("driver not assigned to this order")

	// ErrInvalidRating is returned when a review rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrOrderNotCompleted is returned when reviewing an order that has not
	// reached COMPLETED.
	ErrOrderNotCompleted = errors.New("order is not completed")

	// ErrOrderAlreadyReviewed is returned on a second review for an order.
	ErrOrderAlreadyReviewed = errors.New("order already reviewed")

	// ErrReviewNotAllowed is returned when the reviewer does not own the order.
	ErrReviewNotAllowed = errors.New("review not allowed for this customer")

	// ErrPaymentNotFound is returned when a gateway callback references an
	// unknown transaction.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidAmount is returned when a top-up amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// ErrInsufficientBalance is the sentinel matched by errors.Is for
// InsufficientBalanceError values.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// InsufficientBalanceError carries the amounts needed for display when a
// wallet debit cannot be covered.
type InsufficientBalanceError struct {
	Required  domain.Money
	Available domain.Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: required %s, available %s",
		e.Required.String(), e.Available.String())
}

// Is makes errors.Is(err, ErrInsufficientBalance) match.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// CheckoutFailedError wraps a checkout failure after compensation has run.
// PaymentOutcomeUnknown marks gateway failures where the charge may or may
// not have landed; those are reconciled by a follow-up, never retried blind.
type CheckoutFailedError struct {
	Step                  string
	PaymentOutcomeUnknown bool
	Err                   error
}

func (e *CheckoutFailedError) Error() string {
	if e.PaymentOutcomeUnknown {
		return fmt.Sprintf("checkout failed at %s (payment outcome unknown): %v", e.Step, e.Err)
	}
	return fmt.Sprintf("checkout failed at %s: %v", e.Step, e.Err)
}

func (e *CheckoutFailedError) Unwrap() error {
	return e.Err
}
