package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// ReviewRepository is a PostgreSQL implementation of repository.ReviewRepository.
type ReviewRepository struct {
	q Querier
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{q: db}
}

// Create persists a new review. The unique index on order_id enforces one
// review per order.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, order_id, customer_id, driver_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		review.ID,
		review.OrderID,
		review.CustomerID,
		nullString(review.DriverID),
		review.Rating,
		nullString(review.Comment),
		review.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByOrderID retrieves the review for an order, or nil if not reviewed.
func (r *ReviewRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Review, error) {
	query := `
		SELECT id, order_id, customer_id, driver_id, rating, comment, created_at
		FROM reviews WHERE order_id = $1
	`

	var review domain.Review
	var driverID, comment sql.NullString

	err := r.q.QueryRowContext(ctx, query, orderID).Scan(
		&review.ID,
		&review.OrderID,
		&review.CustomerID,
		&driverID,
		&review.Rating,
		&comment,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if driverID.Valid {
		review.DriverID = driverID.String
	}
	if comment.Valid {
		review.Comment = comment.String
	}

	return &review, nil
}
