package domain

// LineEstimate is the priced form of a single requested service line.
type LineEstimate struct {
	ServiceID   string
	ServiceName string
	Quantity    int
	UnitPrice   Money
	LineTotal   Money
}

// PriceEstimate is the deterministic pricing of a set of service lines.
// The total is the sum of the per-line rounded totals, so it is independent
// of input ordering.
type PriceEstimate struct {
	Lines []LineEstimate
	Total Money
}
