package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"spotless/internal/domain"
)

// WalletRepository defines the persistence operations for wallet balances.
// Debit and Credit are single-statement read-modify-writes against the
// stored balance; no intermediate state is observable.
type WalletRepository interface {
	// Get retrieves a customer's wallet.
	Get(ctx context.Context, customerID string) (*domain.Wallet, error)

	// Create persists a new wallet.
	Create(ctx context.Context, wallet *domain.Wallet) error

	// Debit subtracts amount iff the balance covers it. Reports whether
	// the debit was applied; false means insufficient balance and no
	// mutation.
	Debit(ctx context.Context, customerID string, amount decimal.Decimal) (bool, error)

	// Credit adds amount to the balance unconditionally.
	Credit(ctx context.Context, customerID string, amount decimal.Decimal) error
}
