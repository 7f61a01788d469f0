package repository

import (
	"context"

	"spotless/internal/domain"
)

// CatalogRepository reads the service catalog and time slots. The
// fulfillment engine never writes catalog data; slot booking counters are
// the one exception.
type CatalogRepository interface {
	// GetServiceByID retrieves a catalog service with its current price.
	GetServiceByID(ctx context.Context, id string) (*domain.Service, error)

	// GetTimeSlot retrieves a time slot.
	GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error)

	// ReserveTimeSlot increments the booking counter iff capacity remains.
	// Reports whether a reservation was taken.
	ReserveTimeSlot(ctx context.Context, id string) (bool, error)

	// ReleaseTimeSlot returns a previously taken reservation.
	ReleaseTimeSlot(ctx context.Context, id string) error
}
