package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a request does not specify one.
const DefaultCurrency = "EGP"

// ErrCurrencyMismatch is returned when arithmetic is attempted between two
// Money values of different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an exact decimal amount in a single currency. Displayable totals
// are rounded half-to-even at 2 decimal places via Round.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney creates a Money value rounded to 2 decimal places.
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount.RoundBank(2), Currency: currency}
}

// NewMoneyFromString parses a decimal string like "35.00".
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// ZeroMoney returns a zero value in the given currency.
func ZeroMoney(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

// Add returns m + other. Fails on currency mismatch.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails on currency mismatch.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// MulInt returns m multiplied by a quantity.
func (m Money) MulInt(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Round returns m rounded half-to-even at 2 decimal places.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.RoundBank(2), Currency: m.Currency}
}

// Cmp compares amounts: -1 if m < other, 0 if equal, 1 if m > other.
// Currencies must already match; callers check with SameCurrency.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String formats the amount at 2 decimal places with the currency code.
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
