package tests

import (
	"context"
	"testing"
	"time"

	"spotless/internal/domain"
	"spotless/internal/service"
)

func newCartFixture(t *testing.T) (*service.CartService, *MockCartRepository, *MockCatalogRepository, *MockLockStore) {
	t.Helper()
	cartRepo := NewMockCartRepository()
	catalogRepo := NewMockCatalogRepository()
	lockStore := NewMockLockStore()
	catalogService := service.NewCatalogService(catalogRepo, nil)
	cartService := service.NewCartService(cartRepo, catalogService, lockStore, time.Minute)
	return cartService, cartRepo, catalogRepo, lockStore
}

func TestCart_AddItemCreatesCartLazily(t *testing.T) {
	cartService, cartRepo, catalogRepo, _ := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})

	cart, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 2)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", cart.Items[0].Quantity)
	}
	if cartRepo.CreateCallCount != 1 {
		t.Errorf("expected exactly one cart created, got %d", cartRepo.CreateCallCount)
	}
}

func TestCart_AddSameServiceMergesQuantity(t *testing.T) {
	cartService, _, catalogRepo, _ := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})

	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", cart.Items[0].Quantity)
	}
}

func TestCart_TotalWeightDerived(t *testing.T) {
	cartService, _, catalogRepo, _ := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})
	catalogRepo.AddService(&domain.Service{ID: "svc-duvet", Name: "Duvet Clean", UnitPrice: mustMoney(t, "20.00"), MaxWeightKg: 3})

	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := cartService.AddItem(context.Background(), "cust-1", "svc-duvet", 1)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if got := cart.TotalWeightKg(); got != 13 {
		t.Errorf("total weight = %v, want 13", got)
	}
}

func TestCart_RemoveAbsentLineIsNoOp(t *testing.T) {
	cartService, _, catalogRepo, _ := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})

	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := cartService.RemoveItem(context.Background(), "cust-1", "svc-never-added")
	if err != nil {
		t.Fatalf("removing an absent line should succeed, got %v", err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("expected cart unchanged with 1 item, got %d", len(cart.Items))
	}
}

func TestCart_RemoveItem(t *testing.T) {
	cartService, _, catalogRepo, _ := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})
	catalogRepo.AddService(&domain.Service{ID: "svc-iron", Name: "Ironing", UnitPrice: mustMoney(t, "5.00"), MaxWeightKg: 2})

	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-iron", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := cartService.RemoveItem(context.Background(), "cust-1", "svc-wash")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ServiceID != "svc-iron" {
		t.Errorf("expected only svc-iron to remain, got %+v", cart.Items)
	}
}

func TestCart_UnknownServiceRejected(t *testing.T) {
	cartService, _, _, _ := newCartFixture(t)

	_, err := cartService.AddItem(context.Background(), "cust-1", "svc-ghost", 1)
	if err != service.ErrServiceNotFound {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestCart_LockedCartRejectsMutation(t *testing.T) {
	cartService, _, catalogRepo, lockStore := newCartFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})
	lockStore.ForceAcquireFailure = true

	_, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 1)
	if err != service.ErrCartBusy {
		t.Errorf("expected ErrCartBusy, got %v", err)
	}
}

func TestCart_LockUsesConfiguredTTL(t *testing.T) {
	cartRepo := NewMockCartRepository()
	catalogRepo := NewMockCatalogRepository()
	lockStore := NewMockLockStore()
	catalogService := service.NewCatalogService(catalogRepo, nil)
	cartService := service.NewCartService(cartRepo, catalogService, lockStore, 90*time.Second)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "10.00"), MaxWeightKg: 5})

	if _, err := cartService.AddItem(context.Background(), "cust-1", "svc-wash", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// Checkout holds this same lock across its saga, so the configured TTL
	// must reach the lock store unchanged.
	if lockStore.LastCartLockTTL != 90*time.Second {
		t.Errorf("lock TTL = %v, want 90s", lockStore.LastCartLockTTL)
	}
}

func TestCart_GetMissingReturnsEmpty(t *testing.T) {
	cartService, _, _, _ := newCartFixture(t)

	cart, err := cartService.Get(context.Background(), "cust-nobody")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart, got %d items", len(cart.Items))
	}
}
