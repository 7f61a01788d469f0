package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for distributed locking and
// dispatch offer bookkeeping.
type LockStoreInterface interface {
	AcquireCartLock(ctx context.Context, customerID string, ttl time.Duration) (bool, error)
	ReleaseCartLock(ctx context.Context, customerID string) error
	PlaceOffer(ctx context.Context, orderID, driverID string, ttl time.Duration) (bool, error)
	GetOffer(ctx context.Context, orderID string) (string, error)
	WithdrawOffer(ctx context.Context, orderID, driverID string) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
