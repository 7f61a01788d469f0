package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spotless/internal/domain"
	"spotless/internal/repository"
)

// WalletService is the ledger for customer stored balances. Debits and
// credits go through single-statement conditional updates in the
// repository, so the balance can never be observed mid-mutation and never
// goes negative.
type WalletService struct {
	walletRepo  repository.WalletRepository
	paymentRepo repository.PaymentRepository
	currency    string
}

// NewWalletService creates a new WalletService.
func NewWalletService(walletRepo repository.WalletRepository, paymentRepo repository.PaymentRepository, currency string) *WalletService {
	return &WalletService{
		walletRepo:  walletRepo,
		paymentRepo: paymentRepo,
		currency:    currency,
	}
}

// GetBalance returns the customer's balance, zero if no wallet exists yet.
func (s *WalletService) GetBalance(ctx context.Context, customerID string) (domain.Money, error) {
	if customerID == "" {
		return domain.Money{}, ErrInvalidCustomerID
	}

	wallet, err := s.walletRepo.Get(ctx, customerID)
	if err != nil {
		if err == repository.ErrNotFound {
			return domain.ZeroMoney(s.currency), nil
		}
		return domain.Money{}, err
	}

	return wallet.Balance, nil
}

// Debit withdraws amount from the wallet. Fails with
// InsufficientBalanceError and no mutation if the balance cannot cover it.
func (s *WalletService) Debit(ctx context.Context, customerID string, amount domain.Money) error {
	if customerID == "" {
		return ErrInvalidCustomerID
	}
	if amount.Currency != s.currency {
		return fmt.Errorf("%w: wallet holds %s, got %s", domain.ErrCurrencyMismatch, s.currency, amount.Currency)
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	ok, err := s.walletRepo.Debit(ctx, customerID, amount.Amount)
	if err != nil {
		if err == repository.ErrNotFound {
			return &InsufficientBalanceError{Required: amount, Available: domain.ZeroMoney(s.currency)}
		}
		return err
	}
	if !ok {
		available, err := s.GetBalance(ctx, customerID)
		if err != nil {
			available = domain.ZeroMoney(s.currency)
		}
		return &InsufficientBalanceError{Required: amount, Available: available}
	}

	return nil
}

// Credit deposits amount into the wallet, creating it if needed.
// Credits never fail for balance reasons.
func (s *WalletService) Credit(ctx context.Context, customerID string, amount domain.Money) error {
	if customerID == "" {
		return ErrInvalidCustomerID
	}
	if amount.Currency != s.currency {
		return fmt.Errorf("%w: wallet holds %s, got %s", domain.ErrCurrencyMismatch, s.currency, amount.Currency)
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	err := s.walletRepo.Credit(ctx, customerID, amount.Amount)
	if err == repository.ErrNotFound {
		err = s.walletRepo.Create(ctx, &domain.Wallet{
			CustomerID: customerID,
			Balance:    amount.Round(),
		})
		if err == repository.ErrDuplicate {
			// Lost the race to create the wallet; deposit into the winner's.
			return s.walletRepo.Credit(ctx, customerID, amount.Amount)
		}
		return err
	}

	return err
}

// TopUp credits the wallet and records a completed top-up payment with no
// order attached.
func (s *WalletService) TopUp(ctx context.Context, customerID string, amount domain.Money, method domain.PaymentMethod) (*domain.Payment, error) {
	if err := s.Credit(ctx, customerID, amount); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		Amount:      amount.Round(),
		Method:      method,
		Status:      domain.PaymentStatusCompleted,
		PaymentDate: time.Now(),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}
