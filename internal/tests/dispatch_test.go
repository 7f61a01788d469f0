package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spotless/internal/config"
	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/service"
)

func dispatchTestConfig() config.DispatchConfig {
	return config.DispatchConfig{
		SearchRadiusKm:      10,
		OfferWindow:         60 * time.Millisecond,
		OfferPollInterval:   5 * time.Millisecond,
		SweepInterval:       time.Hour,
		MaxSweeps:           2,
		AutoCompleteTimeout: time.Hour,
		PaymentTimeout:      time.Hour,
	}
}

type dispatchFixture struct {
	dispatch   *service.DispatchService
	orderRepo  *MockOrderRepository
	driverRepo *MockDriverRepository
	locations  *MockLocationStore
	lockStore  *MockLockStore
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		orderRepo:  NewMockOrderRepository(),
		driverRepo: NewMockDriverRepository(),
		locations:  NewMockLocationStore(),
		lockStore:  NewMockLockStore(),
	}
	f.dispatch = service.NewDispatchService(f.orderRepo, f.driverRepo, f.locations, f.lockStore, nil, dispatchTestConfig())
	return f
}

func confirmedOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: "cust-1",
		Status:     domain.OrderStatusConfirmed,
		PickupLat:  30.0444,
		PickupLng:  31.2357,
	}
}

func TestDispatch_AcceptClaimsOrder(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusAvailable})
	f.lockStore.SetOffer("order-1", "driver-1", time.Minute)

	order, err := f.dispatch.Accept(context.Background(), "order-1", "driver-1")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if order.DriverID != "driver-1" {
		t.Errorf("driver = %q, want driver-1", order.DriverID)
	}
	if order.Status != domain.OrderStatusDriverAssigned {
		t.Errorf("status = %s, want DRIVER_ASSIGNED", order.Status)
	}
	if f.driverRepo.GetDriver("driver-1").Status != domain.DriverStatusEnRoute {
		t.Errorf("driver status = %s, want EN_ROUTE", f.driverRepo.GetDriver("driver-1").Status)
	}
	// The claim is one conditional update setting driver and status together.
	if f.orderRepo.TransitionCallCount != 0 {
		t.Errorf("expected no separate status transition, got %d", f.orderRepo.TransitionCallCount)
	}
}

func TestDispatch_AcceptWithoutOfferRejected(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusAvailable})

	_, err := f.dispatch.Accept(context.Background(), "order-1", "driver-1")
	if !errors.Is(err, service.ErrNoActiveOffer) {
		t.Errorf("expected ErrNoActiveOffer, got %v", err)
	}
}

func TestDispatch_SecondClaimLosesRace(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusAvailable})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Status: domain.DriverStatusAvailable})

	f.lockStore.SetOffer("order-1", "driver-1", time.Minute)
	if _, err := f.dispatch.Accept(context.Background(), "order-1", "driver-1"); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	// A stale offer for a second driver cannot steal an assigned order.
	f.lockStore.SetOffer("order-1", "driver-2", time.Minute)
	_, err := f.dispatch.Accept(context.Background(), "order-1", "driver-2")
	if !errors.Is(err, service.ErrOrderAlreadyAssigned) {
		t.Errorf("expected ErrOrderAlreadyAssigned, got %v", err)
	}
	if got := f.orderRepo.GetOrder("order-1").DriverID; got != "driver-1" {
		t.Errorf("winning driver = %q, want driver-1", got)
	}
}

func TestDispatch_ConcurrentAcceptsSingleWinner(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))

	const drivers = 8
	ids := make([]string, drivers)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		f.driverRepo.AddDriver(&domain.Driver{ID: ids[i], Status: domain.DriverStatusAvailable})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for _, id := range ids {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			// Every driver believes they hold an offer; the conditional
			// assignment decides the real winner.
			f.lockStore.SetOffer("order-1", driverID, time.Minute)
			if _, err := f.dispatch.Accept(context.Background(), "order-1", driverID); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if f.orderRepo.GetOrder("order-1").DriverID == "" {
		t.Error("expected the order to end up assigned")
	}
}

func TestDispatch_DeclineReleasesOffer(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusAvailable})
	f.lockStore.SetOffer("order-1", "driver-1", time.Minute)

	if err := f.dispatch.Decline(context.Background(), "order-1", "driver-1"); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	holder, _ := f.lockStore.GetOffer(context.Background(), "order-1")
	if holder != "" {
		t.Errorf("expected offer withdrawn, still held by %q", holder)
	}

	// Declining again finds nothing to release.
	if err := f.dispatch.Decline(context.Background(), "order-1", "driver-1"); !errors.Is(err, service.ErrNoActiveOffer) {
		t.Errorf("expected ErrNoActiveOffer, got %v", err)
	}
}

func TestDispatch_SkipsUnavailableDrivers(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-busy", Status: domain.DriverStatusBusy})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-offline", Status: domain.DriverStatusOffline})
	f.locations.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-busy", DistKm: 1},
		{DriverID: "driver-offline", DistKm: 2},
	})

	err := f.dispatch.Dispatch(context.Background(), "order-1")
	if !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Errorf("expected ErrNoDriverAvailable, got %v", err)
	}
	if f.lockStore.PlaceOfferCallCount != 0 {
		t.Errorf("no offers should go to unavailable drivers, got %d", f.lockStore.PlaceOfferCallCount)
	}
}

func TestDispatch_IgnoredOfferMovesToNextCandidate(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-near", Status: domain.DriverStatusAvailable})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-far", Status: domain.DriverStatusAvailable})
	f.locations.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-near", DistKm: 1},
		{DriverID: "driver-far", DistKm: 5},
	})

	// Nobody responds, so the round should offer to both drivers in turn
	// and then record the exhausted attempt.
	err := f.dispatch.Dispatch(context.Background(), "order-1")
	if !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Errorf("expected ErrNoDriverAvailable, got %v", err)
	}
	if f.lockStore.PlaceOfferCallCount != 2 {
		t.Errorf("offers placed = %d, want 2", f.lockStore.PlaceOfferCallCount)
	}
	if got := f.orderRepo.GetOrder("order-1").DispatchAttempts; got != 1 {
		t.Errorf("dispatch attempts = %d, want 1", got)
	}
}

func TestDispatch_AcceptDuringRoundStopsOffering(t *testing.T) {
	f := newDispatchFixture(t)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusAvailable})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Status: domain.DriverStatusAvailable})
	f.locations.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-1", DistKm: 1},
		{DriverID: "driver-2", DistKm: 2},
	})

	done := make(chan error, 1)
	go func() {
		done <- f.dispatch.Dispatch(context.Background(), "order-1")
	}()

	// Wait for the offer to reach driver-1, then accept it.
	deadline := time.Now().Add(time.Second)
	for {
		holder, _ := f.lockStore.GetOffer(context.Background(), "order-1")
		if holder == "driver-1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("offer for driver-1 never appeared")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := f.dispatch.Accept(context.Background(), "order-1", "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("dispatch round failed: %v", err)
	}
	if f.lockStore.PlaceOfferCallCount != 1 {
		t.Errorf("offers placed = %d, want 1 (round stops after claim)", f.lockStore.PlaceOfferCallCount)
	}
}

// stubCanceller records coverage-failure cancellations.
type stubCanceller struct {
	mu        sync.Mutex
	cancelled []string
}

func (s *stubCanceller) CancelForNoCoverage(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

func TestDispatch_ExhaustedRetriesCancelOrder(t *testing.T) {
	f := newDispatchFixture(t)
	canceller := &stubCanceller{}
	f.dispatch.SetCoverageFailureHandler(canceller)
	f.orderRepo.AddOrder(confirmedOrder("order-1"))

	// No drivers anywhere. MaxSweeps is 2, so the second empty round
	// should give up and cancel.
	if err := f.dispatch.Dispatch(context.Background(), "order-1"); !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Fatalf("expected ErrNoDriverAvailable, got %v", err)
	}
	if len(canceller.cancelled) != 0 {
		t.Fatalf("cancelled too early after one round")
	}

	if err := f.dispatch.Dispatch(context.Background(), "order-1"); !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Fatalf("expected ErrNoDriverAvailable, got %v", err)
	}
	if len(canceller.cancelled) != 1 || canceller.cancelled[0] != "order-1" {
		t.Errorf("expected order-1 cancelled for no coverage, got %v", canceller.cancelled)
	}
}
