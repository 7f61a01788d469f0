package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spotless/internal/domain"
	"spotless/internal/service"
)

type settlementFixture struct {
	settlement  *service.SettlementService
	orderRepo   *MockOrderRepository
	paymentRepo *MockPaymentRepository
	catalogRepo *MockCatalogRepository
	gateway     *MockPaymentGateway
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		orderRepo:   NewMockOrderRepository(),
		paymentRepo: NewMockPaymentRepository(),
		catalogRepo: NewMockCatalogRepository(),
		gateway:     NewMockPaymentGateway(),
	}
	catalogService := service.NewCatalogService(f.catalogRepo, nil)
	f.settlement = service.NewSettlementService(f.paymentRepo, f.orderRepo, catalogService, f.gateway, nil)
	return f
}

// addPendingCheckout stores an order awaiting payment with its pending
// charge, as a card checkout leaves them.
func (f *settlementFixture) addPendingCheckout(t *testing.T, orderID, txnRef string) {
	t.Helper()
	f.orderRepo.AddOrder(&domain.Order{
		ID:            orderID,
		CustomerID:    "cust-1",
		Status:        domain.OrderStatusAwaitingPayment,
		PaymentMethod: domain.PaymentMethodCard,
		TotalAmount:   mustMoney(t, "40.00"),
		TimeSlotID:    "slot-1",
	})
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:                   "pay-" + orderID,
		OrderID:              orderID,
		CustomerID:           "cust-1",
		Amount:               mustMoney(t, "40.00"),
		Method:               domain.PaymentMethodCard,
		Status:               domain.PaymentStatusPending,
		TransactionReference: txnRef,
	})
	f.catalogRepo.AddTimeSlot(&domain.TimeSlot{ID: "slot-1", Capacity: 5, BookedCount: 1})
}

func TestSettlement_SuccessCallbackConfirmsOrder(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")

	payment, err := f.settlement.HandleCallback(context.Background(), "txn-1", true)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want COMPLETED", payment.Status)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusConfirmed {
		t.Errorf("order status = %s, want CONFIRMED", got)
	}
}

func TestSettlement_DuplicateCallbackIsNoOp(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")
	ctx := context.Background()

	if _, err := f.settlement.HandleCallback(ctx, "txn-1", true); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	replayed, err := f.settlement.HandleCallback(ctx, "txn-1", true)
	if err != nil {
		t.Fatalf("replayed callback failed: %v", err)
	}

	if replayed.Status != domain.PaymentStatusCompleted {
		t.Errorf("replayed payment status = %s, want COMPLETED", replayed.Status)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusConfirmed {
		t.Errorf("order status = %s, want CONFIRMED after replay", got)
	}
	// A late failure callback for a settled charge changes nothing either.
	if _, err := f.settlement.HandleCallback(ctx, "txn-1", false); err != nil {
		t.Fatalf("late failure callback errored: %v", err)
	}
	if got := f.paymentRepo.GetPaymentByOrder("order-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want COMPLETED despite late failure", got)
	}
}

func TestSettlement_ConcurrentCallbacksSettleOnce(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.settlement.HandleCallback(context.Background(), "txn-1", true)
		}()
	}
	wg.Wait()

	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusConfirmed {
		t.Errorf("order status = %s, want CONFIRMED", got)
	}
	if got := f.paymentRepo.GetPaymentByOrder("order-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want COMPLETED", got)
	}
}

func TestSettlement_FailureCallbackFailsOrderAndReleasesSlot(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")

	payment, err := f.settlement.HandleCallback(context.Background(), "txn-1", false)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payment.Status)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusFailed {
		t.Errorf("order status = %s, want FAILED", got)
	}
	if got := f.catalogRepo.BookedCount("slot-1"); got != 0 {
		t.Errorf("slot booked count = %d, want 0 after release", got)
	}
}

func TestSettlement_UnknownReferenceRejected(t *testing.T) {
	f := newSettlementFixture(t)

	if _, err := f.settlement.HandleCallback(context.Background(), "txn-ghost", true); !errors.Is(err, service.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
	if _, err := f.settlement.HandleCallback(context.Background(), "", true); !errors.Is(err, service.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound for empty reference, got %v", err)
	}
}

func TestSettlement_LateSuccessAfterCancellationRefunds(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")
	f.orderRepo.GetOrder("order-1").Status = domain.OrderStatusCancelled

	payment, err := f.settlement.HandleCallback(context.Background(), "txn-1", true)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	// The charge settled against a dead order, so the money goes straight
	// back out.
	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("callback payment status = %s, want COMPLETED", payment.Status)
	}
	if got := f.paymentRepo.GetPaymentByOrder("order-1").Status; got != domain.PaymentStatusRefundPending {
		t.Errorf("stored payment status = %s, want REFUND_PENDING", got)
	}
	if f.gateway.RefundCallCount != 1 {
		t.Errorf("gateway refunds = %d, want 1", f.gateway.RefundCallCount)
	}
	if got := f.orderRepo.GetOrder("order-1").Status; got != domain.OrderStatusCancelled {
		t.Errorf("order status = %s, want still CANCELLED", got)
	}
}

func TestSettlement_VoidSkipsSettledPayment(t *testing.T) {
	f := newSettlementFixture(t)
	f.addPendingCheckout(t, "order-1", "txn-1")

	if _, err := f.settlement.HandleCallback(context.Background(), "txn-1", true); err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if err := f.settlement.VoidPendingPayment(context.Background(), "order-1"); err != nil {
		t.Fatalf("void errored: %v", err)
	}

	if f.gateway.VoidCallCount != 0 {
		t.Errorf("gateway voids = %d, want 0 for a settled charge", f.gateway.VoidCallCount)
	}
	if got := f.paymentRepo.GetPaymentByOrder("order-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want COMPLETED untouched", got)
	}
}
