// Package money provides decimal currency arithmetic. Amounts are carried as
// decimal values and persisted as strings with exactly two fraction digits,
// never as binary floats.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Parse converts a persisted price string into a decimal amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for trusted literals (seed data, tests).
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round2 rounds to two decimal places, half up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount with exactly two fraction digits, the persisted
// representation for all price fields.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
