package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// CartService manages the per-customer cart. Every mutation is serialized
// through a per-customer lock: read under lock, modify, write under lock,
// so concurrent adds cannot lose an update. Checkout holds the same lock
// across its whole saga, so the TTL must outlast a slow gateway call.
type CartService struct {
	cartRepo  repository.CartRepository
	catalog   CatalogLookup
	lockStore redis.LockStoreInterface
	lockTTL   time.Duration
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repository.CartRepository, catalog CatalogLookup, lockStore redis.LockStoreInterface, lockTTL time.Duration) *CartService {
	return &CartService{
		cartRepo:  cartRepo,
		catalog:   catalog,
		lockStore: lockStore,
		lockTTL:   lockTTL,
	}
}

// AddItem adds a service to the customer's cart, creating the cart lazily.
// Adding a service already in the cart increments its quantity.
func (s *CartService) AddItem(ctx context.Context, customerID, serviceID string, quantity int) (*domain.Cart, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if serviceID == "" {
		return nil, ErrInvalidServiceID
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, customerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.getOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if existing := cart.FindItem(serviceID); existing != nil {
		newQuantity := existing.Quantity + quantity
		if err := s.cartRepo.UpdateItemQuantity(ctx, existing.ID, newQuantity); err != nil {
			return nil, err
		}
		existing.Quantity = newQuantity
	} else {
		item := domain.CartItem{
			ID:          uuid.New().String(),
			CartID:      cart.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Quantity:    quantity,
			MaxWeightKg: svc.MaxWeightKg,
			AddedAt:     time.Now(),
		}
		if err := s.cartRepo.AddItem(ctx, &item); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}

	if err := s.cartRepo.Touch(ctx, cart.ID); err != nil {
		return nil, err
	}
	cart.LastModifiedAt = time.Now()

	return cart, nil
}

// RemoveItem removes a service line from the cart. Removing a line that is
// not there succeeds without effect.
func (s *CartService) RemoveItem(ctx context.Context, customerID, serviceID string) (*domain.Cart, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if serviceID == "" {
		return nil, ErrInvalidServiceID
	}

	unlock, err := s.lock(ctx, customerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.cartRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if err == repository.ErrNotFound {
			// No cart yet: removing from nothing is still a success.
			return s.getOrCreate(ctx, customerID)
		}
		return nil, err
	}

	if cart.FindItem(serviceID) == nil {
		return cart, nil
	}

	if err := s.cartRepo.RemoveItem(ctx, cart.ID, serviceID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.cartRepo.GetByCustomerID(ctx, customerID)
}

// Clear empties the customer's cart.
func (s *CartService) Clear(ctx context.Context, customerID string) error {
	if customerID == "" {
		return ErrInvalidCustomerID
	}

	unlock, err := s.lock(ctx, customerID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.clearLocked(ctx, customerID)
}

// clearLocked empties the cart without taking the customer lock; the
// checkout saga calls this while already serialized on the order.
func (s *CartService) clearLocked(ctx context.Context, customerID string) error {
	cart, err := s.cartRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil
		}
		return err
	}

	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		return err
	}
	return s.cartRepo.Touch(ctx, cart.ID)
}

// Get returns the customer's cart, creating an empty one if absent.
func (s *CartService) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	cart, err := s.cartRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return &domain.Cart{CustomerID: customerID}, nil
		}
		return nil, err
	}

	return cart, nil
}

func (s *CartService) getOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetByCustomerID(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	now := time.Now()
	cart = &domain.Cart{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *CartService) lock(ctx context.Context, customerID string) (func(), error) {
	locked, err := s.lockStore.AcquireCartLock(ctx, customerID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrCartBusy
	}
	return func() {
		_ = s.lockStore.ReleaseCartLock(context.Background(), customerID)
	}, nil
}
