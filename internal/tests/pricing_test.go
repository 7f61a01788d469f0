package tests

import (
	"context"
	"testing"

	"spotless/internal/domain"
	"spotless/internal/service"
)

func newPricingFixture(t *testing.T) (*service.PricingService, *MockCatalogRepository) {
	t.Helper()
	catalogRepo := NewMockCatalogRepository()
	catalogService := service.NewCatalogService(catalogRepo, nil)
	return service.NewPricingService(catalogService), catalogRepo
}

func mustMoney(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, "EGP")
	if err != nil {
		t.Fatalf("bad money %q: %v", amount, err)
	}
	return m
}

func TestEstimate_LineTotalsAndGrandTotal(t *testing.T) {
	pricing, catalogRepo := newPricingFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-wash", Name: "Wash & Fold", UnitPrice: mustMoney(t, "12.50")})
	catalogRepo.AddService(&domain.Service{ID: "svc-iron", Name: "Ironing", UnitPrice: mustMoney(t, "5.25")})

	estimate, err := pricing.Estimate(context.Background(), []service.EstimateItem{
		{ServiceID: "svc-wash", Quantity: 2},
		{ServiceID: "svc-iron", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	if len(estimate.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(estimate.Lines))
	}
	if got := estimate.Lines[0].LineTotal.Amount.StringFixed(2); got != "25.00" {
		t.Errorf("line 0 total = %s, want 25.00", got)
	}
	if got := estimate.Lines[1].LineTotal.Amount.StringFixed(2); got != "15.75" {
		t.Errorf("line 1 total = %s, want 15.75", got)
	}
	if got := estimate.Total.Amount.StringFixed(2); got != "40.75" {
		t.Errorf("total = %s, want 40.75", got)
	}
}

func TestEstimate_OrderIndependent(t *testing.T) {
	pricing, catalogRepo := newPricingFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-a", Name: "A", UnitPrice: mustMoney(t, "3.33")})
	catalogRepo.AddService(&domain.Service{ID: "svc-b", Name: "B", UnitPrice: mustMoney(t, "7.77")})
	catalogRepo.AddService(&domain.Service{ID: "svc-c", Name: "C", UnitPrice: mustMoney(t, "0.99")})

	forward, err := pricing.Estimate(context.Background(), []service.EstimateItem{
		{ServiceID: "svc-a", Quantity: 3},
		{ServiceID: "svc-b", Quantity: 1},
		{ServiceID: "svc-c", Quantity: 7},
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	reversed, err := pricing.Estimate(context.Background(), []service.EstimateItem{
		{ServiceID: "svc-c", Quantity: 7},
		{ServiceID: "svc-b", Quantity: 1},
		{ServiceID: "svc-a", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	if forward.Total.Cmp(reversed.Total) != 0 {
		t.Errorf("totals differ by input order: %s vs %s",
			forward.Total.Amount.String(), reversed.Total.Amount.String())
	}
}

func TestEstimate_RoundsPerLine(t *testing.T) {
	pricing, catalogRepo := newPricingFixture(t)
	// The catalog price 1.115 rounds half-to-even to 1.12 on entry, so the
	// frozen line total is 3 x 1.12 = 3.36.
	catalogRepo.AddService(&domain.Service{ID: "svc-odd", Name: "Odd", UnitPrice: mustMoney(t, "1.115")})

	estimate, err := pricing.Estimate(context.Background(), []service.EstimateItem{
		{ServiceID: "svc-odd", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	if got := estimate.Lines[0].LineTotal.Amount.StringFixed(2); got != "3.36" {
		t.Errorf("line total = %s, want 3.36", got)
	}
	if estimate.Total.Cmp(estimate.Lines[0].LineTotal) != 0 {
		t.Errorf("total %s != single line total %s",
			estimate.Total.Amount.String(), estimate.Lines[0].LineTotal.Amount.String())
	}
}

func TestEstimate_UnknownService(t *testing.T) {
	pricing, _ := newPricingFixture(t)

	_, err := pricing.Estimate(context.Background(), []service.EstimateItem{
		{ServiceID: "svc-missing", Quantity: 1},
	})
	if err != service.ErrServiceNotFound {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestEstimate_RejectsBadInput(t *testing.T) {
	pricing, catalogRepo := newPricingFixture(t)
	catalogRepo.AddService(&domain.Service{ID: "svc-a", Name: "A", UnitPrice: mustMoney(t, "1.00")})

	if _, err := pricing.Estimate(context.Background(), nil); err != service.ErrNoItems {
		t.Errorf("expected ErrNoItems for empty input, got %v", err)
	}
	if _, err := pricing.Estimate(context.Background(), []service.EstimateItem{{ServiceID: "svc-a", Quantity: 0}}); err != service.ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}
