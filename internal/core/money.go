// Package core holds the subscription domain model and the pure calculation
// layer: currency normalization, billing-cycle equivalents, and analytics
// over a ledger snapshot. Nothing in this package performs I/O.
package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CanonicalCurrency is the currency every cost comparison and total is
// normalized to.
const CanonicalCurrency = INR

// ErrMissingRate reports a valid non-canonical currency with no entry in
// the rate table. Callers must supply a complete table or reject the save.
var ErrMissingRate = errors.New("missing conversion rate")

// RateTable maps a non-canonical currency to its INR multiplier. The table
// is static and supplied externally; this package never fetches rates.
type RateTable map[Currency]decimal.Decimal

// ToCanonical converts cost in the given currency to the canonical currency,
// rounded to 2 decimal places half-up. The canonical currency passes through
// unrounded conversion but is still rounded for a consistent scale.
func ToCanonical(cost decimal.Decimal, currency Currency, rates RateTable) (decimal.Decimal, error) {
	if !currency.Valid() {
		return decimal.Zero, ErrUnknownCurrency
	}
	if currency == CanonicalCurrency {
		return cost.Round(2), nil
	}
	rate, ok := rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingRate, currency)
	}
	return cost.Mul(rate).Round(2), nil
}
