package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in the smallest currency unit. Ledger money is always
// stored as Cents; decimal is only used at the edges for display and parsing.
type Cents int64

// centsPerUnit is the number of cents in one major currency unit
const centsPerUnit = 100

var hundred = decimal.NewFromInt(centsPerUnit)

// NewCentsFromDecimal converts a major-unit decimal ("123.45") to Cents.
// Amounts with more than two fractional digits are rejected rather than rounded.
func NewCentsFromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d.String())
	}
	return Cents(scaled.IntPart()), nil
}

// ParseCents parses a major-unit string amount
func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewCentsFromDecimal(d)
}

// Int64 returns the raw cents value
func (c Cents) Int64() int64 {
	return int64(c)
}

// Decimal returns the amount in major units
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount in major units with two decimals
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// IsNegative returns true for amounts below zero
func (c Cents) IsNegative() bool {
	return c < 0
}

// IsPositive returns true for amounts above zero
func (c Cents) IsPositive() bool {
	return c > 0
}

// ClampZero returns max(0, c)
func (c Cents) ClampZero() Cents {
	if c < 0 {
		return 0
	}
	return c
}

// Min returns the smaller of c and other
func (c Cents) Min(other Cents) Cents {
	if other < c {
		return other
	}
	return c
}

// SumCents adds up amounts
func SumCents(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
