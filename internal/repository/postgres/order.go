package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

const orderColumns = `
	id, customer_id, driver_id, pickup_lat, pickup_lng, delivery_lat, delivery_lng,
	time_slot_id, scheduled_date, total_amount, currency, payment_method, status,
	idempotency_key, dispatch_attempts, created_at, delivered_at, completed_at,
	cancelled_at, cancel_reason
`

// Create persists a new order with its frozen items.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	var driverID sql.NullString
	if order.DriverID != "" {
		driverID = sql.NullString{String: order.DriverID, Valid: true}
	}

	var idempotencyKey sql.NullString
	if order.IdempotencyKey != "" {
		idempotencyKey = sql.NullString{String: order.IdempotencyKey, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		driverID,
		order.PickupLat,
		order.PickupLng,
		order.DeliveryLat,
		order.DeliveryLng,
		order.TimeSlotID,
		order.ScheduledDate,
		order.TotalAmount.Amount,
		order.TotalAmount.Currency,
		order.PaymentMethod,
		order.Status,
		idempotencyKey,
		order.DispatchAttempts,
		order.CreatedAt,
		nullTime(order.DeliveredAt),
		nullTime(order.CompletedAt),
		nullTime(order.CancelledAt),
		nullString(order.CancelReason),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, service_id, service_name, quantity, unit_price, line_total, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range order.Items {
		if _, err := r.q.ExecContext(ctx, itemQuery,
			item.ID,
			order.ID,
			item.ServiceID,
			item.ServiceName,
			item.Quantity,
			item.UnitPrice.Amount,
			item.LineTotal.Amount,
			item.UnitPrice.Currency,
		); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetByIdempotencyKey retrieves the order created under a checkout key.
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`

	order, err := r.scanOrder(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// TransitionStatus applies from → to only if the order is still in from.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	query := `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`
	args := []any{to, id, from}

	switch to {
	case domain.OrderStatusDelivered:
		query = `UPDATE orders SET status = $1, delivered_at = $4 WHERE id = $2 AND status = $3`
		args = append(args, at)
	case domain.OrderStatusCompleted:
		query = `UPDATE orders SET status = $1, completed_at = $4 WHERE id = $2 AND status = $3`
		args = append(args, at)
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// CancelTransition moves the order to CANCELLED from the given status.
func (r *OrderRepository) CancelTransition(ctx context.Context, id string, from domain.OrderStatus, at time.Time, reason string) error {
	query := `
		UPDATE orders SET status = $1, cancelled_at = $2, cancel_reason = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query, domain.OrderStatusCancelled, at, nullString(reason), id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// AssignDriver claims the order for a driver iff no driver holds it.
func (r *OrderRepository) AssignDriver(ctx context.Context, orderID, driverID string) error {
	query := `
		UPDATE orders SET driver_id = $1, status = $2
		WHERE id = $3 AND driver_id IS NULL AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, driverID, domain.OrderStatusDriverAssigned, orderID, domain.OrderStatusConfirmed)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// IncrementDispatchAttempts bumps the failed-sweep counter.
func (r *OrderRepository) IncrementDispatchAttempts(ctx context.Context, orderID string) (int, error) {
	query := `
		UPDATE orders SET dispatch_attempts = dispatch_attempts + 1
		WHERE id = $1 RETURNING dispatch_attempts
	`

	var attempts int
	if err := r.q.QueryRowContext(ctx, query, orderID).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return attempts, nil
}

// ListUnassignedConfirmed returns confirmed orders awaiting a driver.
func (r *OrderRepository) ListUnassignedConfirmed(ctx context.Context, maxAttempts int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND driver_id IS NULL AND dispatch_attempts < $2
		ORDER BY created_at ASC LIMIT 100
	`

	return r.queryOrders(ctx, query, domain.OrderStatusConfirmed, maxAttempts)
}

// ListDeliveredBefore returns delivered orders older than the cutoff.
func (r *OrderRepository) ListDeliveredBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND delivered_at < $2
		ORDER BY delivered_at ASC LIMIT 100
	`

	return r.queryOrders(ctx, query, domain.OrderStatusDelivered, cutoff)
}

// ListAwaitingPaymentBefore returns awaiting-payment orders older than the
// cutoff.
func (r *OrderRepository) ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC LIMIT 100
	`

	return r.queryOrders(ctx, query, domain.OrderStatusAwaitingPayment, cutoff)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var driverID, idempotencyKey, cancelReason sql.NullString
	var deliveredAt, completedAt, cancelledAt sql.NullTime
	var amount decimal.Decimal
	var currency string

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&driverID,
		&order.PickupLat,
		&order.PickupLng,
		&order.DeliveryLat,
		&order.DeliveryLng,
		&order.TimeSlotID,
		&order.ScheduledDate,
		&amount,
		&currency,
		&order.PaymentMethod,
		&order.Status,
		&idempotencyKey,
		&order.DispatchAttempts,
		&order.CreatedAt,
		&deliveredAt,
		&completedAt,
		&cancelledAt,
		&cancelReason,
	)
	if err != nil {
		return nil, err
	}

	order.TotalAmount = domain.Money{Amount: amount, Currency: currency}
	if driverID.Valid {
		order.DriverID = driverID.String
	}
	if idempotencyKey.Valid {
		order.IdempotencyKey = idempotencyKey.String
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}
	if completedAt.Valid {
		order.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = cancelledAt.Time
	}
	if cancelReason.Valid {
		order.CancelReason = cancelReason.String
	}

	return &order, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, service_id, service_name, quantity, unit_price, line_total, currency
		FROM order_items WHERE order_id = $1 ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var unitPrice, lineTotal decimal.Decimal
		var currency string
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ServiceID,
			&item.ServiceName,
			&item.Quantity,
			&unitPrice,
			&lineTotal,
			&currency,
		); err != nil {
			return err
		}
		item.UnitPrice = domain.Money{Amount: unitPrice, Currency: currency}
		item.LineTotal = domain.Money{Amount: lineTotal, Currency: currency}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
