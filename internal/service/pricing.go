package service

import (
	"context"

	"spotless/internal/domain"
)

// PricingService computes deterministic price estimates from the catalog.
// Estimation is pure: no side effects, identical results for an unchanged
// catalog snapshot.
type PricingService struct {
	catalog CatalogLookup
}

// NewPricingService creates a new PricingService.
func NewPricingService(catalog CatalogLookup) *PricingService {
	return &PricingService{catalog: catalog}
}

// EstimateItem is one requested service line.
type EstimateItem struct {
	ServiceID string
	Quantity  int
}

// Estimate prices the given lines. Each line total is rounded half-to-even
// at 2 decimals on its own, and the grand total is recomputed as the sum of
// the rounded line totals, so input order never changes the result and
// rounding drift cannot accumulate across lines.
func (s *PricingService) Estimate(ctx context.Context, items []EstimateItem) (*domain.PriceEstimate, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	lines := make([]domain.LineEstimate, 0, len(items))
	for _, item := range items {
		if item.ServiceID == "" {
			return nil, ErrInvalidServiceID
		}
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		svc, err := s.catalog.GetService(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.LineEstimate{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Quantity:    item.Quantity,
			UnitPrice:   svc.UnitPrice.Round(),
			LineTotal:   svc.UnitPrice.MulInt(int64(item.Quantity)).Round(),
		})
	}

	total := domain.ZeroMoney(lines[0].LineTotal.Currency)
	for _, line := range lines {
		var err error
		total, err = total.Add(line.LineTotal)
		if err != nil {
			return nil, err
		}
	}

	return &domain.PriceEstimate{
		Lines: lines,
		Total: total.Round(),
	}, nil
}
