package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// CatalogRepository is a PostgreSQL implementation of repository.CatalogRepository.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

// GetServiceByID retrieves a catalog service with its current price.
func (r *CatalogRepository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, name, description, unit_price, currency, max_weight_kg
		FROM services WHERE id = $1
	`

	var svc domain.Service
	var unitPrice decimal.Decimal
	var currency string

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&svc.ID,
		&svc.Name,
		&svc.Description,
		&unitPrice,
		&currency,
		&svc.MaxWeightKg,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	svc.UnitPrice = domain.Money{Amount: unitPrice, Currency: currency}
	return &svc, nil
}

// GetTimeSlot retrieves a time slot.
func (r *CatalogRepository) GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error) {
	query := `
		SELECT id, scheduled_date, capacity, booked_count
		FROM time_slots WHERE id = $1
	`

	var slot domain.TimeSlot
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&slot.ID,
		&slot.ScheduledDate,
		&slot.Capacity,
		&slot.BookedCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &slot, nil
}

// ReserveTimeSlot increments the booking counter iff capacity remains.
func (r *CatalogRepository) ReserveTimeSlot(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE time_slots SET booked_count = booked_count + 1
		WHERE id = $1 AND booked_count < capacity
	`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ReleaseTimeSlot returns a previously taken reservation.
func (r *CatalogRepository) ReleaseTimeSlot(ctx context.Context, id string) error {
	query := `
		UPDATE time_slots SET booked_count = booked_count - 1
		WHERE id = $1 AND booked_count > 0
	`

	_, err := r.q.ExecContext(ctx, query, id)
	return err
}
