package service

import (
	"context"
	"log"
	"sort"
	"time"

	"spotless/internal/config"
	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// coverageFailureHandler cancels and refunds an order that dispatch could
// not place after the allowed number of sweeps.
type coverageFailureHandler interface {
	CancelForNoCoverage(ctx context.Context, orderID string) error
}

// DispatchService finds a driver for a confirmed order. Candidates are
// ranked nearest-first with longest-idle breaking ties, and offered the
// order one at a time. An offer is an exclusive claim with a deadline:
// while one driver holds it, nobody else is asked.
type DispatchService struct {
	orderRepo     repository.OrderRepository
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	lockStore     redis.LockStoreInterface
	notifier      *NotificationService
	canceller     coverageFailureHandler
	cfg           config.DispatchConfig
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	notifier *NotificationService,
	cfg config.DispatchConfig,
) *DispatchService {
	return &DispatchService{
		orderRepo:     orderRepo,
		driverRepo:    driverRepo,
		locationStore: locationStore,
		lockStore:     lockStore,
		notifier:      notifier,
		cfg:           cfg,
	}
}

// SetCoverageFailureHandler wires the cancellation path after construction.
func (s *DispatchService) SetCoverageFailureHandler(h coverageFailureHandler) {
	s.canceller = h
}

// DispatchAsync runs a dispatch round for the order in the background.
func (s *DispatchService) DispatchAsync(orderID string) {
	go func() {
		if err := s.Dispatch(context.Background(), orderID); err != nil {
			log.Printf("[DISPATCH] order %s: %v", orderID, err)
		}
	}()
}

// Dispatch runs one full offer round for the order. Returns nil when a
// driver claimed the order, ErrNoDriverAvailable when every candidate
// passed, and ErrDispatchInProgress when another round already holds an
// open offer.
func (s *DispatchService) Dispatch(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrInvalidOrderID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusConfirmed || order.DriverID != "" {
		// Nothing to dispatch; the order moved on or was never confirmed.
		return nil
	}

	candidates, err := s.rankCandidates(ctx, order)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		claimed, err := s.offerAndWait(ctx, order, candidate)
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
	}

	return s.recordExhaustedRound(ctx, order)
}

// rankCandidates returns available drivers near the pickup, nearest first,
// longest idle breaking distance ties.
func (s *DispatchService) rankCandidates(ctx context.Context, order *domain.Order) ([]*domain.Driver, error) {
	locations, err := s.locationStore.FindNearbyDrivers(ctx, order.PickupLat, order.PickupLng, s.cfg.SearchRadiusKm)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		driver *domain.Driver
		distKm float64
	}

	var candidates []ranked
	for _, loc := range locations {
		driver, err := s.driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return nil, err
		}
		if driver.Status != domain.DriverStatusAvailable {
			continue
		}
		candidates = append(candidates, ranked{driver: driver, distKm: loc.DistKm})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distKm != candidates[j].distKm {
			return candidates[i].distKm < candidates[j].distKm
		}
		return candidates[i].driver.LastActiveAt.Before(candidates[j].driver.LastActiveAt)
	})

	drivers := make([]*domain.Driver, 0, len(candidates))
	for _, c := range candidates {
		drivers = append(drivers, c.driver)
	}
	return drivers, nil
}

// offerAndWait places an exclusive offer for one driver and waits for a
// response until the window closes. Reports whether the order got claimed.
func (s *DispatchService) offerAndWait(ctx context.Context, order *domain.Order, driver *domain.Driver) (bool, error) {
	placed, err := s.lockStore.PlaceOffer(ctx, order.ID, driver.ID, s.cfg.OfferWindow)
	if err != nil {
		return false, err
	}
	if !placed {
		return false, ErrDispatchInProgress
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyPickupOffer(ctx, order, driver.ID, s.cfg.OfferWindow)
	}

	deadline := time.Now().Add(s.cfg.OfferWindow)
	ticker := time.NewTicker(s.cfg.OfferPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_, _ = s.lockStore.WithdrawOffer(context.Background(), order.ID, driver.ID)
			return false, ctx.Err()
		case <-ticker.C:
			current, err := s.orderRepo.GetByID(ctx, order.ID)
			if err != nil {
				return false, err
			}
			if current.DriverID != "" {
				return true, nil
			}
			if current.Status != domain.OrderStatusConfirmed {
				// Cancelled or failed mid-round; stop offering.
				_, _ = s.lockStore.WithdrawOffer(ctx, order.ID, driver.ID)
				return true, nil
			}

			holder, err := s.lockStore.GetOffer(ctx, order.ID)
			if err != nil {
				return false, err
			}
			if holder == "" {
				// Declined or expired; move to the next candidate.
				return false, nil
			}
			if time.Now().After(deadline) {
				_, _ = s.lockStore.WithdrawOffer(ctx, order.ID, driver.ID)
				return false, nil
			}
		}
	}
}

// recordExhaustedRound bumps the failed-round counter and cancels the order
// once the retry budget is spent.
func (s *DispatchService) recordExhaustedRound(ctx context.Context, order *domain.Order) error {
	attempts, err := s.orderRepo.IncrementDispatchAttempts(ctx, order.ID)
	if err != nil {
		return err
	}

	if attempts >= s.cfg.MaxSweeps {
		if s.canceller != nil {
			if err := s.canceller.CancelForNoCoverage(ctx, order.ID); err != nil {
				return err
			}
		}
		if s.notifier != nil {
			_ = s.notifier.NotifyNoDriverCoverage(ctx, order)
		}
	}

	return ErrNoDriverAvailable
}

// Accept lets a driver claim the order they were offered. Exactly one
// driver can win; late or un-offered accepts are rejected.
func (s *DispatchService) Accept(ctx context.Context, orderID, driverID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	holder, err := s.lockStore.GetOffer(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if holder != driverID {
		return nil, ErrNoActiveOffer
	}

	// AssignDriver claims the driver and moves the order to DRIVER_ASSIGNED
	// in one conditional update.
	if err := s.orderRepo.AssignDriver(ctx, orderID, driverID); err != nil {
		if err == repository.ErrConflict {
			return nil, ErrOrderAlreadyAssigned
		}
		return nil, err
	}

	_, _ = s.lockStore.WithdrawOffer(ctx, orderID, driverID)

	now := time.Now()
	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusEnRoute); err != nil {
		log.Printf("[DISPATCH] failed to mark driver %s en route: %v", driverID, err)
	}
	_ = s.driverRepo.TouchLastActive(ctx, driverID, now)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		driver, dErr := s.driverRepo.GetByID(ctx, driverID)
		if dErr == nil {
			_ = s.notifier.NotifyDriverAssigned(ctx, order, driver)
		}
	}

	return order, nil
}

// Decline lets a driver pass on their offer, releasing it immediately so
// the round moves to the next candidate.
func (s *DispatchService) Decline(ctx context.Context, orderID, driverID string) error {
	if orderID == "" {
		return ErrInvalidOrderID
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	withdrawn, err := s.lockStore.WithdrawOffer(ctx, orderID, driverID)
	if err != nil {
		return err
	}
	if !withdrawn {
		return ErrNoActiveOffer
	}

	_ = s.driverRepo.TouchLastActive(ctx, driverID, time.Now())
	return nil
}

// RunSweeper periodically retries confirmed orders still waiting for a
// driver. Runs until the context is cancelled.
func (s *DispatchService) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DispatchService) sweep(ctx context.Context) {
	orders, err := s.orderRepo.ListUnassignedConfirmed(ctx, s.cfg.MaxSweeps)
	if err != nil {
		log.Printf("[DISPATCH] sweep failed to list orders: %v", err)
		return
	}

	for _, order := range orders {
		if err := s.Dispatch(ctx, order.ID); err != nil && err != ErrNoDriverAvailable && err != ErrDispatchInProgress {
			log.Printf("[DISPATCH] sweep for order %s: %v", order.ID, err)
		}
	}
}
