package postgres

import (
	"context"
	"database/sql"
	"errors"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// CartRepository is a PostgreSQL implementation of repository.CartRepository.
type CartRepository struct {
	q Querier
}

// NewCartRepository creates a new PostgreSQL cart repository.
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{q: db}
}

// NewCartRepositoryWithTx creates a cart repository using a transaction.
func NewCartRepositoryWithTx(tx *sql.Tx) *CartRepository {
	return &CartRepository{q: tx}
}

// Create persists a new empty cart.
func (r *CartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, customer_id, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query, cart.ID, cart.CustomerID, cart.CreatedAt, cart.LastModifiedAt)
	return err
}

// GetByCustomerID retrieves a customer's cart with its items.
func (r *CartRepository) GetByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, created_at, last_modified_at
		FROM carts WHERE customer_id = $1
	`

	var cart domain.Cart
	err := r.q.QueryRowContext(ctx, query, customerID).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.LastModifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	itemQuery := `
		SELECT id, cart_id, service_id, service_name, quantity, max_weight_kg, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at ASC
	`

	rows, err := r.q.QueryContext(ctx, itemQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ServiceID,
			&item.ServiceName,
			&item.Quantity,
			&item.MaxWeightKg,
			&item.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

// AddItem appends a new line to a cart.
func (r *CartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, service_id, service_name, quantity, max_weight_kg, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		item.ID,
		item.CartID,
		item.ServiceID,
		item.ServiceName,
		item.Quantity,
		item.MaxWeightKg,
		item.AddedAt,
	)
	return err
}

// UpdateItemQuantity sets the quantity of an existing line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	query := `UPDATE cart_items SET quantity = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, quantity, itemID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RemoveItem deletes the line for a service. Absent lines are a no-op.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, serviceID string) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND service_id = $2`

	_, err := r.q.ExecContext(ctx, query, cartID, serviceID)
	return err
}

// ClearItems deletes all lines from a cart.
func (r *CartRepository) ClearItems(ctx context.Context, cartID string) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	_, err := r.q.ExecContext(ctx, query, cartID)
	return err
}

// Touch updates the cart's last-modified timestamp.
func (r *CartRepository) Touch(ctx context.Context, cartID string) error {
	query := `UPDATE carts SET last_modified_at = NOW() WHERE id = $1`

	_, err := r.q.ExecContext(ctx, query, cartID)
	return err
}
