// Package money provides a fixed-precision monetary value object.
//
// Backed by shopspring/decimal instead of a float or a currency-dependent
// cents table: every arithmetic operation is currency-checked, and scale is
// whatever the decimal carries rather than a hardcoded divisor per currency.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinScale is the minimum number of decimal places a Money value preserves.
const MinScale = 2

// Money is an immutable amount denominated in a single ISO 4217 currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// New builds a Money from a decimal string (e.g. "12.50") and a currency code.
func New(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return fromDecimal(d, currency)
}

// FromDecimal builds a Money directly from a decimal.Decimal.
func FromDecimal(d decimal.Decimal, currency string) (Money, error) {
	return fromDecimal(d, currency)
}

func fromDecimal(d decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, fmt.Errorf("currency is required")
	}
	if d.Exponent() > -MinScale {
		d = d.Round(MinScale)
	}
	return Money{amount: d, currency: currency}, nil
}

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string { return m.currency }

// Decimal returns the underlying decimal.Decimal.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// String renders the amount at fixed scale, e.g. "12.50".
func (m Money) String() string {
	return m.amount.StringFixed(MinScale)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is strictly negative.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsPositive reports whether the amount is strictly positive.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// SameCurrency reports whether m and other share a currency.
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Compare returns -1, 0, or 1 as m is less than, equal to, or greater than
// other. Panics if currencies differ — callers must check SameCurrency (or
// use CompareSafe) before comparing across currencies.
func (m Money) Compare(other Money) int {
	if !m.SameCurrency(other) {
		panic(fmt.Sprintf("money: cannot compare %s to %s", m.currency, other.currency))
	}
	return m.amount.Cmp(other.amount)
}

// CompareSafe is Compare but returns an error instead of panicking on a
// currency mismatch.
func (m Money) CompareSafe(other Money) (int, error) {
	if !m.SameCurrency(other) {
		return 0, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThanOrEqual reports whether m >= other (same currency required).
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Compare(other) >= 0
}

// LessThan reports whether m < other (same currency required).
func (m Money) LessThan(other Money) bool {
	return m.Compare(other) < 0
}
