package service

import (
	"context"
	"time"

	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// DriverService manages driver availability and live locations. Locations
// live in the geo index only; the database keeps status and activity.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository, locationStore redis.LocationStoreInterface) *DriverService {
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
	}
}

// Get retrieves a driver by ID.
func (s *DriverService) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// UpdateLocation records a driver's position and refreshes their activity
// timestamp for dispatch tie-breaking.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !validCoordinates(lat, lng) {
		return ErrInvalidLocation
	}

	if _, err := s.driverRepo.GetByID(ctx, driverID); err != nil {
		return err
	}

	if err := s.locationStore.UpdateLocation(ctx, driverID, lat, lng); err != nil {
		return err
	}
	return s.driverRepo.TouchLastActive(ctx, driverID, time.Now())
}

// SetStatus updates a driver's availability. Going offline removes them
// from the geo index so dispatch never offers them work.
func (s *DriverService) SetStatus(ctx context.Context, driverID string, status domain.DriverStatus) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	switch status {
	case domain.DriverStatusOffline, domain.DriverStatusAvailable, domain.DriverStatusEnRoute, domain.DriverStatusBusy:
	default:
		return ErrInvalidStateTransition
	}

	if _, err := s.driverRepo.GetByID(ctx, driverID); err != nil {
		return err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, status); err != nil {
		return err
	}

	if status == domain.DriverStatusOffline {
		if err := s.locationStore.RemoveLocation(ctx, driverID); err != nil {
			return err
		}
	}

	return s.driverRepo.TouchLastActive(ctx, driverID, time.Now())
}
