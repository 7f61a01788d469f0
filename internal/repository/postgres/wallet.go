package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Get retrieves a customer's wallet.
func (r *WalletRepository) Get(ctx context.Context, customerID string) (*domain.Wallet, error) {
	query := `SELECT customer_id, balance, currency FROM wallets WHERE customer_id = $1`

	var wallet domain.Wallet
	var balance decimal.Decimal
	var currency string

	err := r.q.QueryRowContext(ctx, query, customerID).Scan(&wallet.CustomerID, &balance, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	wallet.Balance = domain.Money{Amount: balance, Currency: currency}
	return &wallet, nil
}

// Create persists a new wallet. Returns ErrDuplicate if a concurrent
// credit created one for the customer first.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (customer_id, balance, currency) VALUES ($1, $2, $3)`

	_, err := r.q.ExecContext(ctx, query, wallet.CustomerID, wallet.Balance.Amount, wallet.Balance.Currency)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// Debit subtracts amount iff the balance covers it. The guard and the write
// happen in one statement, so concurrent debits cannot interleave.
func (r *WalletRepository) Debit(ctx context.Context, customerID string, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE wallets SET balance = balance - $1
		WHERE customer_id = $2 AND balance >= $1
	`

	result, err := r.q.ExecContext(ctx, query, amount, customerID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// Credit adds amount to the balance.
func (r *WalletRepository) Credit(ctx context.Context, customerID string, amount decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1 WHERE customer_id = $2`

	result, err := r.q.ExecContext(ctx, query, amount, customerID)
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
