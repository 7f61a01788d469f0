package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"spotless/internal/config"
	"spotless/internal/domain"
	"spotless/internal/repository"
	"spotless/internal/service"
)

type lifecycleFixture struct {
	orders      *service.OrderService
	orderRepo   *MockOrderRepository
	driverRepo  *MockDriverRepository
	catalogRepo *MockCatalogRepository
	walletRepo  *MockWalletRepository
	paymentRepo *MockPaymentRepository
	lockStore   *MockLockStore
	gateway     *MockPaymentGateway
}

func newLifecycleFixture(t *testing.T, cfg config.DispatchConfig) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		orderRepo:   NewMockOrderRepository(),
		driverRepo:  NewMockDriverRepository(),
		catalogRepo: NewMockCatalogRepository(),
		walletRepo:  NewMockWalletRepository(),
		paymentRepo: NewMockPaymentRepository(),
		lockStore:   NewMockLockStore(),
		gateway:     NewMockPaymentGateway(),
	}
	catalogService := service.NewCatalogService(f.catalogRepo, nil)
	walletService := service.NewWalletService(f.walletRepo, f.paymentRepo, "EGP")
	settlementService := service.NewSettlementService(f.paymentRepo, f.orderRepo, catalogService, f.gateway, nil)
	f.orders = service.NewOrderService(f.orderRepo, f.driverRepo, catalogService, walletService, settlementService, f.lockStore, nil, cfg)
	return f
}

func (f *lifecycleFixture) addAssignedOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:            id,
		CustomerID:    "cust-1",
		DriverID:      "driver-1",
		Status:        domain.OrderStatusDriverAssigned,
		PaymentMethod: domain.PaymentMethodWallet,
		TotalAmount:   mustMoney(t, "35.00"),
		TimeSlotID:    "slot-1",
	}
	f.orderRepo.AddOrder(order)
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusEnRoute})
	f.catalogRepo.AddTimeSlot(&domain.TimeSlot{ID: "slot-1", Capacity: 5, BookedCount: 1})
	return order
}

func TestLifecycle_MilestonesInOrder(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")
	ctx := context.Background()

	for _, milestone := range []domain.OrderStatus{
		domain.OrderStatusPickedUp,
		domain.OrderStatusInTransit,
		domain.OrderStatusDelivered,
	} {
		order, err := f.orders.ReportMilestone(ctx, "order-1", "driver-1", milestone)
		if err != nil {
			t.Fatalf("milestone %s failed: %v", milestone, err)
		}
		if order.Status != milestone {
			t.Fatalf("status = %s, want %s", order.Status, milestone)
		}
	}

	// Delivery frees the driver for the next pickup.
	if got := f.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusAvailable {
		t.Errorf("driver status after delivery = %s, want AVAILABLE", got)
	}
	if f.orderRepo.GetOrder("order-1").DeliveredAt.IsZero() {
		t.Error("expected DeliveredAt to be stamped")
	}
}

func TestLifecycle_SkippedMilestoneRejected(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")

	_, err := f.orders.ReportMilestone(context.Background(), "order-1", "driver-1", domain.OrderStatusInTransit)
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusDriverAssigned {
		t.Errorf("status = %s, want unchanged DRIVER_ASSIGNED", got)
	}
}

func TestLifecycle_RepeatedMilestoneRejected(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")
	ctx := context.Background()

	if _, err := f.orders.ReportMilestone(ctx, "order-1", "driver-1", domain.OrderStatusPickedUp); err != nil {
		t.Fatalf("first milestone failed: %v", err)
	}
	if _, err := f.orders.ReportMilestone(ctx, "order-1", "driver-1", domain.OrderStatusPickedUp); !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition on repeat, got %v", err)
	}
}

func TestLifecycle_MilestoneFromWrongDriverRejected(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")

	_, err := f.orders.ReportMilestone(context.Background(), "order-1", "driver-impostor", domain.OrderStatusPickedUp)
	if !errors.Is(err, service.ErrDriverNotAssigned) {
		t.Errorf("expected ErrDriverNotAssigned, got %v", err)
	}
}

func TestLifecycle_ConfirmDeliveryCompletes(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	order := f.addAssignedOrder(t, "order-1")
	order.Status = domain.OrderStatusDelivered

	completed, err := f.orders.ConfirmDelivery(context.Background(), "cust-1", "order-1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if completed.Status != domain.OrderStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
}

func TestLifecycle_ConfirmDeliveryByStrangerLooksLikeMissingOrder(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	order := f.addAssignedOrder(t, "order-1")
	order.Status = domain.OrderStatusDelivered

	_, err := f.orders.ConfirmDelivery(context.Background(), "cust-stranger", "order-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLifecycle_ConfirmBeforeDeliveryRejected(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")

	_, err := f.orders.ConfirmDelivery(context.Background(), "cust-1", "order-1")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestLifecycle_CancelBeforePickupRefundsAndReleases(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")
	f.walletRepo.AddWallet(&domain.Wallet{CustomerID: "cust-1", Balance: mustMoney(t, "0.00")})

	cancelled, err := f.orders.Cancel(context.Background(), "cust-1", "order-1", "changed my mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelReason != "changed my mind" {
		t.Errorf("reason = %q, want 'changed my mind'", cancelled.CancelReason)
	}
	if got := f.walletRepo.Balance("cust-1").StringFixed(2); got != "35.00" {
		t.Errorf("refunded balance = %s, want 35.00", got)
	}
	if got := f.catalogRepo.BookedCount("slot-1"); got != 0 {
		t.Errorf("slot booked count = %d, want 0 after release", got)
	}
	if got := f.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusAvailable {
		t.Errorf("driver status = %s, want AVAILABLE after cancel", got)
	}
}

func TestLifecycle_CancelWithdrawsOpenOffer(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.orderRepo.AddOrder(&domain.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		Status:        domain.OrderStatusConfirmed,
		PaymentMethod: domain.PaymentMethodWallet,
		TotalAmount:   mustMoney(t, "20.00"),
	})
	f.lockStore.SetOffer("order-1", "driver-1", time.Minute)

	if _, err := f.orders.Cancel(context.Background(), "cust-1", "order-1", "too slow"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	holder, _ := f.lockStore.GetOffer(context.Background(), "order-1")
	if holder != "" {
		t.Errorf("expected offer withdrawn on cancel, still held by %q", holder)
	}
}

func TestLifecycle_CancelAfterPickupRejected(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	order := f.addAssignedOrder(t, "order-1")
	order.Status = domain.OrderStatusPickedUp

	_, err := f.orders.Cancel(context.Background(), "cust-1", "order-1", "too late")
	if !errors.Is(err, service.ErrCancellationNotAllowed) {
		t.Fatalf("expected ErrCancellationNotAllowed, got %v", err)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusPickedUp {
		t.Errorf("status = %s, want unchanged PICKED_UP", got)
	}
}

func TestLifecycle_CancelByStrangerLooksLikeMissingOrder(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.addAssignedOrder(t, "order-1")

	_, err := f.orders.Cancel(context.Background(), "cust-stranger", "order-1", "not mine")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLifecycle_CancelUnsettledCardOrderVoidsCharge(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.orderRepo.AddOrder(&domain.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		Status:        domain.OrderStatusAwaitingPayment,
		PaymentMethod: domain.PaymentMethodCard,
		TotalAmount:   mustMoney(t, "40.00"),
	})
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:                   "pay-1",
		OrderID:              "order-1",
		CustomerID:           "cust-1",
		Amount:               mustMoney(t, "40.00"),
		Method:               domain.PaymentMethodCard,
		Status:               domain.PaymentStatusPending,
		TransactionReference: "txn-1",
	})

	if _, err := f.orders.Cancel(context.Background(), "cust-1", "order-1", "abandoned"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusVoided {
		t.Errorf("payment status = %s, want VOIDED", got)
	}
	if f.gateway.VoidCallCount != 1 {
		t.Errorf("gateway voids = %d, want 1", f.gateway.VoidCallCount)
	}
	if f.gateway.RefundCallCount != 0 {
		t.Errorf("unsettled charge must be voided, not refunded")
	}
}

func TestLifecycle_CancelSettledCardOrderRefunds(t *testing.T) {
	f := newLifecycleFixture(t, dispatchTestConfig())
	f.orderRepo.AddOrder(&domain.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		Status:        domain.OrderStatusConfirmed,
		PaymentMethod: domain.PaymentMethodCard,
		TotalAmount:   mustMoney(t, "40.00"),
	})
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:                   "pay-1",
		OrderID:              "order-1",
		CustomerID:           "cust-1",
		Amount:               mustMoney(t, "40.00"),
		Method:               domain.PaymentMethodCard,
		Status:               domain.PaymentStatusCompleted,
		TransactionReference: "txn-1",
	})

	if _, err := f.orders.Cancel(context.Background(), "cust-1", "order-1", "changed my mind"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusRefundPending {
		t.Errorf("payment status = %s, want REFUND_PENDING", got)
	}
	if f.gateway.RefundCallCount != 1 {
		t.Errorf("gateway refunds = %d, want 1", f.gateway.RefundCallCount)
	}
}

func TestLifecycle_AutoCompletesStaleDeliveredOrders(t *testing.T) {
	cfg := dispatchTestConfig()
	cfg.SweepInterval = 10 * time.Millisecond
	cfg.AutoCompleteTimeout = 50 * time.Millisecond
	f := newLifecycleFixture(t, cfg)

	f.orderRepo.AddOrder(&domain.Order{
		ID:          "order-stale",
		CustomerID:  "cust-1",
		Status:      domain.OrderStatusDelivered,
		DeliveredAt: time.Now().Add(-time.Hour),
	})
	f.orderRepo.AddOrder(&domain.Order{
		ID:          "order-fresh",
		CustomerID:  "cust-2",
		Status:      domain.OrderStatusDelivered,
		DeliveredAt: time.Now(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.orders.RunAutoComplete(ctx)

	deadline := time.Now().Add(time.Second)
	for f.orderRepo.GetOrder("order-stale").Status != domain.OrderStatusCompleted {
		if time.Now().After(deadline) {
			t.Fatal("stale delivered order was never auto-completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := f.orderRepo.GetOrder("order-fresh").Status; got != domain.OrderStatusDelivered {
		t.Errorf("fresh order status = %s, want still DELIVERED", got)
	}
}

func TestLifecycle_ExpiresAbandonedCardCheckouts(t *testing.T) {
	cfg := dispatchTestConfig()
	cfg.SweepInterval = 10 * time.Millisecond
	cfg.PaymentTimeout = 50 * time.Millisecond
	f := newLifecycleFixture(t, cfg)

	f.orderRepo.AddOrder(&domain.Order{
		ID:            "order-stale",
		CustomerID:    "cust-1",
		Status:        domain.OrderStatusAwaitingPayment,
		PaymentMethod: domain.PaymentMethodCard,
		TotalAmount:   mustMoney(t, "35.00"),
		TimeSlotID:    "slot-1",
		CreatedAt:     time.Now().Add(-time.Hour),
	})
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:                   "pay-1",
		OrderID:              "order-stale",
		CustomerID:           "cust-1",
		Amount:               mustMoney(t, "35.00"),
		Method:               domain.PaymentMethodCard,
		Status:               domain.PaymentStatusPending,
		TransactionReference: "txn-1",
	})
	f.catalogRepo.AddTimeSlot(&domain.TimeSlot{ID: "slot-1", Capacity: 5, BookedCount: 1})

	f.orderRepo.AddOrder(&domain.Order{
		ID:            "order-fresh",
		CustomerID:    "cust-2",
		Status:        domain.OrderStatusAwaitingPayment,
		PaymentMethod: domain.PaymentMethodCard,
		TotalAmount:   mustMoney(t, "35.00"),
		CreatedAt:     time.Now(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.orders.RunPaymentExpiry(ctx)

	deadline := time.Now().Add(time.Second)
	for f.orderRepo.GetOrder("order-stale").Status != domain.OrderStatusFailed {
		if time.Now().After(deadline) {
			t.Fatal("abandoned checkout was never failed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", got)
	}
	if f.catalogRepo.BookedCount("slot-1") != 0 {
		t.Errorf("slot booked count = %d, want released to 0", f.catalogRepo.BookedCount("slot-1"))
	}
	if f.gateway.VoidCallCount != 1 {
		t.Errorf("gateway voids = %d, want 1", f.gateway.VoidCallCount)
	}
	if got := f.orderRepo.GetOrder("order-fresh").Status; got != domain.OrderStatusAwaitingPayment {
		t.Errorf("fresh order status = %s, want still AWAITING_PAYMENT", got)
	}
}
