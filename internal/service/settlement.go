package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// PaymentGateway is the interface to the external card payment provider.
type PaymentGateway interface {
	// Initiate registers a pending charge and returns the URL the customer
	// is redirected to. The payment's TransactionReference identifies the
	// charge in later callbacks.
	Initiate(ctx context.Context, payment *domain.Payment) (string, error)

	// Void cancels a charge that never settled.
	Void(ctx context.Context, transactionRef string) error

	// Refund returns a settled charge to the customer.
	Refund(ctx context.Context, transactionRef string, amount domain.Money) error
}

// MockGateway is a mock implementation of PaymentGateway for testing and
// local development.
type MockGateway struct {
	BaseURL   string
	ReturnURL string
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway(baseURL, returnURL string) *MockGateway {
	return &MockGateway{BaseURL: baseURL, ReturnURL: returnURL}
}

// Initiate simulates registering a charge. Always succeeds.
func (g *MockGateway) Initiate(ctx context.Context, payment *domain.Payment) (string, error) {
	return fmt.Sprintf("%s/pay/%s?return=%s", g.BaseURL, payment.TransactionReference, g.ReturnURL), nil
}

// Void simulates cancelling an unsettled charge. Always succeeds.
func (g *MockGateway) Void(ctx context.Context, transactionRef string) error {
	return nil
}

// Refund simulates refunding a settled charge. Always succeeds.
func (g *MockGateway) Refund(ctx context.Context, transactionRef string, amount domain.Money) error {
	return nil
}

// dispatchTrigger starts driver dispatch for a confirmed order without
// blocking the caller.
type dispatchTrigger interface {
	DispatchAsync(orderID string)
}

// SettlementService reconciles gateway callbacks with payments and order
// state. Callbacks are idempotent: the payment status row is the dedupe
// record, flipped with a conditional update, so a replayed callback is a
// visible no-op.
type SettlementService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	catalog     CatalogLookup
	gateway     PaymentGateway
	notifier    *NotificationService
	dispatcher  dispatchTrigger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	catalog CatalogLookup,
	gateway PaymentGateway,
	notifier *NotificationService,
) *SettlementService {
	return &SettlementService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		catalog:     catalog,
		gateway:     gateway,
		notifier:    notifier,
	}
}

// SetDispatcher wires the dispatch trigger after construction. Settlement
// and dispatch reference each other through the order lifecycle, so one
// side is attached late.
func (s *SettlementService) SetDispatcher(d dispatchTrigger) {
	s.dispatcher = d
}

// InitiateCardPayment creates the pending payment for a card checkout and
// returns the gateway redirect URL.
func (s *SettlementService) InitiateCardPayment(ctx context.Context, order *domain.Order) (*domain.Payment, string, error) {
	payment := &domain.Payment{
		ID:                   uuid.New().String(),
		OrderID:              order.ID,
		CustomerID:           order.CustomerID,
		Amount:               order.TotalAmount,
		Method:               domain.PaymentMethodCard,
		Status:               domain.PaymentStatusPending,
		TransactionReference: uuid.New().String(),
		PaymentDate:          time.Now(),
	}

	redirectURL, err := s.gateway.Initiate(ctx, payment)
	if err != nil {
		return nil, "", err
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, "", err
	}

	return payment, redirectURL, nil
}

// RecordWalletPayment records the already-settled payment for a wallet
// checkout. Wallet debits settle synchronously, so the payment is born
// completed.
func (s *SettlementService) RecordWalletPayment(ctx context.Context, order *domain.Order) (*domain.Payment, error) {
	payment := &domain.Payment{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Amount:      order.TotalAmount,
		Method:      domain.PaymentMethodWallet,
		Status:      domain.PaymentStatusCompleted,
		PaymentDate: time.Now(),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleCallback processes a gateway settlement callback. Replays of an
// already-processed callback return the payment unchanged.
func (s *SettlementService) HandleCallback(ctx context.Context, transactionRef string, success bool) (*domain.Payment, error) {
	if transactionRef == "" {
		return nil, ErrPaymentNotFound
	}

	payment, err := s.paymentRepo.GetByTransactionReference(ctx, transactionRef)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	if success {
		return s.settleSuccess(ctx, payment)
	}
	return s.settleFailure(ctx, payment)
}

func (s *SettlementService) settleSuccess(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	changed, err := s.paymentRepo.UpdateStatusIf(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Duplicate callback: the payment already left PENDING.
		return payment, nil
	}
	payment.Status = domain.PaymentStatusCompleted

	err = s.orderRepo.TransitionStatus(ctx, payment.OrderID, domain.OrderStatusAwaitingPayment, domain.OrderStatusConfirmed, time.Now())
	if err == repository.ErrConflict {
		// The order moved while the charge was settling. If it was
		// cancelled the money must go back.
		order, getErr := s.orderRepo.GetByID(ctx, payment.OrderID)
		if getErr != nil {
			return nil, getErr
		}
		if order.Status == domain.OrderStatusCancelled || order.Status == domain.OrderStatusFailed {
			return payment, s.refund(ctx, payment, order)
		}
		return payment, nil
	}
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyPaymentSuccess(ctx, payment)
		_ = s.notifier.NotifyOrderConfirmed(ctx, order)
	}
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(order.ID)
	}

	return payment, nil
}

func (s *SettlementService) settleFailure(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	changed, err := s.paymentRepo.UpdateStatusIf(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	if err != nil {
		return nil, err
	}
	if !changed {
		return payment, nil
	}
	payment.Status = domain.PaymentStatusFailed

	err = s.orderRepo.TransitionStatus(ctx, payment.OrderID, domain.OrderStatusAwaitingPayment, domain.OrderStatusFailed, time.Now())
	if err != nil && err != repository.ErrConflict {
		return nil, err
	}
	if err == nil {
		order, getErr := s.orderRepo.GetByID(ctx, payment.OrderID)
		if getErr == nil && order.TimeSlotID != "" {
			if relErr := s.catalog.ReleaseTimeSlot(ctx, order.TimeSlotID); relErr != nil {
				log.Printf("[SETTLEMENT] failed to release time slot %s for order %s: %v", order.TimeSlotID, order.ID, relErr)
			}
		}
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyPaymentFailed(ctx, payment)
	}

	return payment, nil
}

// ExpirePendingPayment fails an awaiting-payment order whose gateway
// callback never arrived, releasing its time slot and voiding the abandoned
// charge. A callback that raced in wins: the conditional payment update
// decides, and the expiry backs off.
func (s *SettlementService) ExpirePendingPayment(ctx context.Context, order *domain.Order) error {
	payment, err := s.paymentRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return err
	}

	if payment != nil {
		changed, err := s.paymentRepo.UpdateStatusIf(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed)
		if err != nil {
			return err
		}
		if !changed {
			// A callback settled the payment while we looked; its path
			// owns the order now.
			return nil
		}
		payment.Status = domain.PaymentStatusFailed

		if payment.TransactionReference != "" {
			if err := s.gateway.Void(ctx, payment.TransactionReference); err != nil {
				log.Printf("[SETTLEMENT] gateway void failed for expired payment %s: %v", payment.ID, err)
			}
		}
	}

	err = s.orderRepo.TransitionStatus(ctx, order.ID, domain.OrderStatusAwaitingPayment, domain.OrderStatusFailed, time.Now())
	if err == repository.ErrConflict {
		return nil
	}
	if err != nil {
		return err
	}

	if order.TimeSlotID != "" {
		if relErr := s.catalog.ReleaseTimeSlot(ctx, order.TimeSlotID); relErr != nil {
			log.Printf("[SETTLEMENT] failed to release time slot %s for expired order %s: %v", order.TimeSlotID, order.ID, relErr)
		}
	}

	if s.notifier != nil && payment != nil {
		_ = s.notifier.NotifyPaymentFailed(ctx, payment)
	}

	return nil
}

// VoidPendingPayment voids the unsettled charge for an order, if any.
// Called when an order is cancelled while still awaiting payment.
func (s *SettlementService) VoidPendingPayment(ctx context.Context, orderID string) error {
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if payment == nil {
		return nil
	}

	changed, err := s.paymentRepo.UpdateStatusIf(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusVoided)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if payment.TransactionReference != "" {
		if err := s.gateway.Void(ctx, payment.TransactionReference); err != nil {
			log.Printf("[SETTLEMENT] gateway void failed for payment %s: %v", payment.ID, err)
		}
	}
	return nil
}

// RefundCardPayment moves a settled card payment to REFUND_PENDING and asks
// the gateway for the money back. Called on cancellation after settlement.
func (s *SettlementService) RefundCardPayment(ctx context.Context, order *domain.Order) error {
	payment, err := s.paymentRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return err
	}
	if payment == nil {
		return nil
	}
	return s.refund(ctx, payment, order)
}

func (s *SettlementService) refund(ctx context.Context, payment *domain.Payment, order *domain.Order) error {
	changed, err := s.paymentRepo.UpdateStatusIf(ctx, payment.ID, domain.PaymentStatusCompleted, domain.PaymentStatusRefundPending)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if payment.TransactionReference != "" {
		if err := s.gateway.Refund(ctx, payment.TransactionReference, payment.Amount); err != nil {
			log.Printf("[SETTLEMENT] gateway refund failed for payment %s: %v", payment.ID, err)
		}
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyRefundInitiated(ctx, order)
	}
	return nil
}

// GetPaymentForOrder returns the payment attached to an order.
func (s *SettlementService) GetPaymentForOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}
