package domain

// Wallet tracks a customer's stored balance. The balance never goes
// negative; debits are atomic conditional updates against the stored value.
type Wallet struct {
	CustomerID string
	Balance    Money
}
