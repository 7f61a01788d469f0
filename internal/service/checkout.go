package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// CheckoutRequest contains the parameters for placing an order.
type CheckoutRequest struct {
	CustomerID     string
	IdempotencyKey string
	PaymentMethod  domain.PaymentMethod
	TimeSlotID     string
	PickupLat      float64
	PickupLng      float64
	DeliveryLat    float64
	DeliveryLng    float64

	// BuyNow checks out a single service line directly, bypassing the cart.
	// Nil means checkout the customer's cart.
	BuyNow *EstimateItem
}

// CheckoutResult is the outcome of a checkout.
type CheckoutResult struct {
	Order *domain.Order

	// RedirectURL is set for card checkouts; the customer completes the
	// charge at the gateway.
	RedirectURL string

	// AlreadyExisted marks an idempotent replay: the order was created by
	// an earlier request carrying the same key.
	AlreadyExisted bool
}

// CheckoutService runs the checkout saga: resolve items, reserve the time
// slot, freeze prices, take payment, create the order. Each completed step
// has a compensation that runs if a later step fails, so a failed checkout
// leaves no reservation and no money held.
type CheckoutService struct {
	orderRepo  repository.OrderRepository
	cart       *CartService
	catalog    CatalogLookup
	pricing    *PricingService
	wallet     *WalletService
	settlement *SettlementService
	notifier   *NotificationService
	dispatcher dispatchTrigger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cart *CartService,
	catalog CatalogLookup,
	pricing *PricingService,
	wallet *WalletService,
	settlement *SettlementService,
	notifier *NotificationService,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:  orderRepo,
		cart:       cart,
		catalog:    catalog,
		pricing:    pricing,
		wallet:     wallet,
		settlement: settlement,
		notifier:   notifier,
	}
}

// SetDispatcher wires the dispatch trigger after construction.
func (s *CheckoutService) SetDispatcher(d dispatchTrigger) {
	s.dispatcher = d
}

// Checkout places an order. Requests carrying an idempotency key already
// used return the original order without re-running any step.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.PaymentMethod != domain.PaymentMethodWallet && req.PaymentMethod != domain.PaymentMethodCard {
		return nil, ErrInvalidPaymentMethod
	}
	if !validCoordinates(req.PickupLat, req.PickupLng) || !validCoordinates(req.DeliveryLat, req.DeliveryLng) {
		return nil, ErrInvalidLocation
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &CheckoutResult{Order: existing, AlreadyExisted: true}, nil
		}
	}

	// Cart checkouts hold the cart lock across snapshot and clear, so a
	// concurrent add cannot land between pricing and emptying.
	var unlockCart func()
	if req.BuyNow == nil {
		unlock, err := s.cart.lock(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		unlockCart = unlock
		defer unlockCart()
	}

	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return nil, err
	}

	slot, err := s.catalog.GetTimeSlot(ctx, req.TimeSlotID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrTimeSlotUnavailable
		}
		return nil, err
	}

	reserved, err := s.catalog.ReserveTimeSlot(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrTimeSlotUnavailable
	}
	releaseSlot := func() {
		if err := s.catalog.ReleaseTimeSlot(context.Background(), req.TimeSlotID); err != nil {
			log.Printf("[CHECKOUT] failed to release time slot %s: %v", req.TimeSlotID, err)
		}
	}

	estimate, err := s.pricing.Estimate(ctx, items)
	if err != nil {
		releaseSlot()
		return nil, err
	}

	order := buildOrder(req, slot, estimate)

	switch req.PaymentMethod {
	case domain.PaymentMethodWallet:
		return s.checkoutWallet(ctx, req, order, releaseSlot)
	default:
		return s.checkoutCard(ctx, req, order, releaseSlot)
	}
}

// checkoutWallet debits the wallet first, then creates the order already
// confirmed. A failed order write credits the money back.
func (s *CheckoutService) checkoutWallet(ctx context.Context, req CheckoutRequest, order *domain.Order, releaseSlot func()) (*CheckoutResult, error) {
	if err := s.wallet.Debit(ctx, req.CustomerID, order.TotalAmount); err != nil {
		releaseSlot()
		return nil, err
	}
	creditBack := func() {
		if err := s.wallet.Credit(context.Background(), req.CustomerID, order.TotalAmount); err != nil {
			log.Printf("[CHECKOUT] failed to credit back %s to customer %s: %v", order.TotalAmount.String(), req.CustomerID, err)
		}
	}

	order.Status = domain.OrderStatusConfirmed
	if err := s.orderRepo.Create(ctx, order); err != nil {
		creditBack()
		releaseSlot()
		if errors.Is(err, repository.ErrDuplicate) && req.IdempotencyKey != "" {
			existing, getErr := s.orderRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr == nil && existing != nil {
				return &CheckoutResult{Order: existing, AlreadyExisted: true}, nil
			}
		}
		return nil, &CheckoutFailedError{Step: "create order", Err: err}
	}

	if _, err := s.settlement.RecordWalletPayment(ctx, order); err != nil {
		log.Printf("[CHECKOUT] failed to record wallet payment for order %s: %v", order.ID, err)
	}

	s.finish(ctx, req, order)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(order.ID)
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyOrderConfirmed(ctx, order)
	}

	return &CheckoutResult{Order: order}, nil
}

// checkoutCard creates the order awaiting payment and hands the customer a
// gateway redirect. Confirmation happens in the settlement callback.
func (s *CheckoutService) checkoutCard(ctx context.Context, req CheckoutRequest, order *domain.Order, releaseSlot func()) (*CheckoutResult, error) {
	order.Status = domain.OrderStatusAwaitingPayment
	if err := s.orderRepo.Create(ctx, order); err != nil {
		releaseSlot()
		if errors.Is(err, repository.ErrDuplicate) && req.IdempotencyKey != "" {
			existing, getErr := s.orderRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr == nil && existing != nil {
				return &CheckoutResult{Order: existing, AlreadyExisted: true}, nil
			}
		}
		return nil, &CheckoutFailedError{Step: "create order", Err: err}
	}

	_, redirectURL, err := s.settlement.InitiateCardPayment(ctx, order)
	if err != nil {
		// The gateway call may or may not have registered the charge; the
		// order is parked as failed and reconciled out of band, never
		// retried blind.
		if trErr := s.orderRepo.TransitionStatus(ctx, order.ID, domain.OrderStatusAwaitingPayment, domain.OrderStatusFailed, time.Now()); trErr != nil {
			log.Printf("[CHECKOUT] failed to fail order %s after gateway error: %v", order.ID, trErr)
		}
		releaseSlot()
		return nil, &CheckoutFailedError{Step: "initiate payment", PaymentOutcomeUnknown: true, Err: err}
	}

	s.finish(ctx, req, order)

	return &CheckoutResult{Order: order, RedirectURL: redirectURL}, nil
}

// finish clears the cart for cart-sourced checkouts. The order is already
// committed, so a clear failure is logged and absorbed.
func (s *CheckoutService) finish(ctx context.Context, req CheckoutRequest, order *domain.Order) {
	if req.BuyNow != nil {
		return
	}
	if err := s.cart.clearLocked(ctx, req.CustomerID); err != nil {
		log.Printf("[CHECKOUT] failed to clear cart for customer %s after order %s: %v", req.CustomerID, order.ID, err)
	}
}

// resolveItems produces the lines to price, from the cart or the buy-now
// line.
func (s *CheckoutService) resolveItems(ctx context.Context, req CheckoutRequest) ([]EstimateItem, error) {
	if req.BuyNow != nil {
		if req.BuyNow.ServiceID == "" {
			return nil, ErrInvalidServiceID
		}
		if req.BuyNow.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		return []EstimateItem{*req.BuyNow}, nil
	}

	cart, err := s.cart.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]EstimateItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, EstimateItem{ServiceID: line.ServiceID, Quantity: line.Quantity})
	}
	return items, nil
}

func buildOrder(req CheckoutRequest, slot *domain.TimeSlot, estimate *domain.PriceEstimate) *domain.Order {
	orderID := uuid.New().String()
	items := make([]domain.OrderItem, 0, len(estimate.Lines))
	for _, line := range estimate.Lines {
		items = append(items, domain.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			ServiceID:   line.ServiceID,
			ServiceName: line.ServiceName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	return &domain.Order{
		ID:             orderID,
		CustomerID:     req.CustomerID,
		Items:          items,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DeliveryLat:    req.DeliveryLat,
		DeliveryLng:    req.DeliveryLng,
		TimeSlotID:     slot.ID,
		ScheduledDate:  slot.ScheduledDate,
		TotalAmount:    estimate.Total,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
