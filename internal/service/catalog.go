package service

import (
	"context"

	"github.com/shopspring/decimal"

	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// CatalogLookup is the catalog capability consumed by pricing and checkout.
type CatalogLookup interface {
	GetService(ctx context.Context, serviceID string) (*domain.Service, error)
	GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error)
	ReserveTimeSlot(ctx context.Context, id string) (bool, error)
	ReleaseTimeSlot(ctx context.Context, id string) error
}

// CatalogService reads the service catalog through a Redis cache. Prices are
// cached briefly; a checkout always freezes whatever price the snapshot held.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	cacheStore  *redis.CacheStore
}

// Ensure CatalogService implements CatalogLookup.
var _ CatalogLookup = (*CatalogService)(nil)

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo repository.CatalogRepository, cacheStore *redis.CacheStore) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		cacheStore:  cacheStore,
	}
}

// GetService returns a catalog service, preferring the cache.
func (s *CatalogService) GetService(ctx context.Context, serviceID string) (*domain.Service, error) {
	if serviceID == "" {
		return nil, ErrInvalidServiceID
	}

	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetService(ctx, serviceID)
		if err == nil && cached != nil {
			if svc, ok := cachedToService(cached); ok {
				return svc, nil
			}
		}
	}

	svc, err := s.catalogRepo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetService(ctx, &redis.CachedService{
			ID:          svc.ID,
			Name:        svc.Name,
			UnitPrice:   svc.UnitPrice.Amount.String(),
			Currency:    svc.UnitPrice.Currency,
			MaxWeightKg: svc.MaxWeightKg,
		})
	}

	return svc, nil
}

// GetTimeSlot returns a time slot. Slots are not cached; booking counters
// must be read fresh.
func (s *CatalogService) GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error) {
	return s.catalogRepo.GetTimeSlot(ctx, id)
}

// ReserveTimeSlot takes one unit of slot capacity.
func (s *CatalogService) ReserveTimeSlot(ctx context.Context, id string) (bool, error) {
	return s.catalogRepo.ReserveTimeSlot(ctx, id)
}

// ReleaseTimeSlot returns one unit of slot capacity.
func (s *CatalogService) ReleaseTimeSlot(ctx context.Context, id string) error {
	return s.catalogRepo.ReleaseTimeSlot(ctx, id)
}

func cachedToService(cached *redis.CachedService) (*domain.Service, bool) {
	price, err := decimal.NewFromString(cached.UnitPrice)
	if err != nil {
		return nil, false
	}
	return &domain.Service{
		ID:          cached.ID,
		Name:        cached.Name,
		UnitPrice:   domain.Money{Amount: price, Currency: cached.Currency},
		MaxWeightKg: cached.MaxWeightKg,
	}, true
}
