package service

import (
	"context"
	"log"
	"time"

	"spotless/internal/config"
	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// OrderService owns the order lifecycle after checkout: driver milestones,
// customer delivery confirmation, cancellation with compensation, and the
// automatic completion sweep. Every transition is a conditional update
// keyed on the expected current status, so concurrent transitions cannot
// skip or repeat a step.
type OrderService struct {
	orderRepo  repository.OrderRepository
	driverRepo repository.DriverRepository
	catalog    CatalogLookup
	wallet     *WalletService
	settlement *SettlementService
	lockStore  redis.LockStoreInterface
	notifier   *NotificationService
	cfg        config.DispatchConfig
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	catalog CatalogLookup,
	wallet *WalletService,
	settlement *SettlementService,
	lockStore redis.LockStoreInterface,
	notifier *NotificationService,
	cfg config.DispatchConfig,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		driverRepo: driverRepo,
		catalog:    catalog,
		wallet:     wallet,
		settlement: settlement,
		lockStore:  lockStore,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Get retrieves an order with its frozen items.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// milestoneTransitions maps a reported milestone to the status it must
// depart from.
var milestoneTransitions = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPickedUp:  domain.OrderStatusDriverAssigned,
	domain.OrderStatusInTransit: domain.OrderStatusPickedUp,
	domain.OrderStatusDelivered: domain.OrderStatusInTransit,
}

// ReportMilestone records a fulfillment milestone from the assigned driver.
// Milestones arrive in order; a skipped or repeated one is rejected and the
// order is left unchanged.
func (s *OrderService) ReportMilestone(ctx context.Context, orderID, driverID string, milestone domain.OrderStatus) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	from, ok := milestoneTransitions[milestone]
	if !ok {
		return nil, ErrInvalidStateTransition
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}
	if order.Status != from {
		return nil, ErrInvalidStateTransition
	}

	now := time.Now()
	if err := s.orderRepo.TransitionStatus(ctx, orderID, from, milestone, now); err != nil {
		if err == repository.ErrConflict {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if milestone == domain.OrderStatusDelivered {
		// The driver's job is done; release them for the next pickup.
		if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusAvailable); err != nil {
			log.Printf("[ORDER] failed to release driver %s after delivery: %v", driverID, err)
		}
		_ = s.driverRepo.TouchLastActive(ctx, driverID, now)
	}

	order, err = s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyMilestone(ctx, order, milestone)
	}

	return order, nil
}

// ConfirmDelivery lets the customer confirm receipt, completing the order.
func (s *OrderService) ConfirmDelivery(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	if order.Status != domain.OrderStatusDelivered {
		return nil, ErrInvalidStateTransition
	}

	if err := s.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusDelivered, domain.OrderStatusCompleted, time.Now()); err != nil {
		if err == repository.ErrConflict {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	order, err = s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyMilestone(ctx, order, domain.OrderStatusCompleted)
	}

	return order, nil
}

// Cancel cancels a customer's order. Allowed only before pickup; the time
// slot is released, money is returned the way it came in, and an assigned
// driver is freed.
func (s *OrderService) Cancel(ctx context.Context, customerID, orderID, reason string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}

	return s.cancel(ctx, order, reason)
}

// CancelForNoCoverage cancels an order dispatch could not place. The
// customer gets a full refund.
func (s *OrderService) CancelForNoCoverage(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	_, err = s.cancel(ctx, order, "no driver available")
	return err
}

func (s *OrderService) cancel(ctx context.Context, order *domain.Order, reason string) (*domain.Order, error) {
	if !domain.CanCancel(order.Status) {
		return nil, ErrCancellationNotAllowed
	}

	now := time.Now()
	if err := s.orderRepo.CancelTransition(ctx, order.ID, order.Status, now, reason); err != nil {
		if err == repository.ErrConflict {
			// The order moved while we looked at it; the new status decides.
			return nil, ErrCancellationNotAllowed
		}
		return nil, err
	}
	wasAwaitingPayment := order.Status == domain.OrderStatusAwaitingPayment

	if order.TimeSlotID != "" {
		if err := s.catalog.ReleaseTimeSlot(ctx, order.TimeSlotID); err != nil {
			log.Printf("[ORDER] failed to release time slot %s for order %s: %v", order.TimeSlotID, order.ID, err)
		}
	}

	// An open dispatch offer dies with the order.
	if holder, err := s.lockStore.GetOffer(ctx, order.ID); err == nil && holder != "" {
		_, _ = s.lockStore.WithdrawOffer(ctx, order.ID, holder)
	}

	if order.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, order.DriverID, domain.DriverStatusAvailable); err != nil {
			log.Printf("[ORDER] failed to release driver %s for cancelled order %s: %v", order.DriverID, order.ID, err)
		}
	}

	if err := s.returnFunds(ctx, order, wasAwaitingPayment); err != nil {
		log.Printf("[ORDER] refund for cancelled order %s: %v", order.ID, err)
	}

	cancelled, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyOrderCancelled(ctx, cancelled, reason)
	}

	return cancelled, nil
}

// returnFunds sends the money back the way it came in. Wallet payments are
// credited back immediately; card payments are voided before settlement and
// refunded after.
func (s *OrderService) returnFunds(ctx context.Context, order *domain.Order, wasAwaitingPayment bool) error {
	switch order.PaymentMethod {
	case domain.PaymentMethodWallet:
		return s.wallet.Credit(ctx, order.CustomerID, order.TotalAmount)
	case domain.PaymentMethodCard:
		if wasAwaitingPayment {
			return s.settlement.VoidPendingPayment(ctx, order.ID)
		}
		return s.settlement.RefundCardPayment(ctx, order)
	}
	return nil
}

// RunAutoComplete periodically completes delivered orders the customer
// never confirmed. Runs until the context is cancelled.
func (s *OrderService) RunAutoComplete(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoComplete(ctx)
		}
	}
}

// RunPaymentExpiry periodically fails card checkouts whose gateway
// callback never arrived, so abandoned checkouts stop holding time slot
// capacity. Runs until the context is cancelled.
func (s *OrderService) RunPaymentExpiry(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expirePayments(ctx)
		}
	}
}

func (s *OrderService) expirePayments(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.PaymentTimeout)
	orders, err := s.orderRepo.ListAwaitingPaymentBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[ORDER] payment expiry failed to list orders: %v", err)
		return
	}

	for _, order := range orders {
		if err := s.settlement.ExpirePendingPayment(ctx, order); err != nil {
			log.Printf("[ORDER] payment expiry for order %s: %v", order.ID, err)
		}
	}
}

func (s *OrderService) autoComplete(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.AutoCompleteTimeout)
	orders, err := s.orderRepo.ListDeliveredBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[ORDER] auto-complete failed to list orders: %v", err)
		return
	}

	for _, order := range orders {
		err := s.orderRepo.TransitionStatus(ctx, order.ID, domain.OrderStatusDelivered, domain.OrderStatusCompleted, time.Now())
		if err != nil && err != repository.ErrConflict {
			log.Printf("[ORDER] auto-complete for order %s: %v", order.ID, err)
			continue
		}
		if err == nil && s.notifier != nil {
			order.Status = domain.OrderStatusCompleted
			_ = s.notifier.NotifyMilestone(ctx, order, domain.OrderStatusCompleted)
		}
	}
}
