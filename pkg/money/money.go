package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary values are stored as signed int64 minor units (cents). Parsing
// and formatting go through shopspring/decimal so float64 never touches an
// amount.

// Parse converts a decimal string such as "39.99" into minor units.
// At most two fraction digits are allowed.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return shifted.IntPart(), nil
}

// ParsePositive is Parse restricted to strictly positive amounts.
func ParsePositive(s string) (int64, error) {
	minor, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, fmt.Errorf("amount %q must be positive", s)
	}
	return minor, nil
}

// Format renders minor units back to a two-decimal string.
func Format(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// Sum adds minor-unit amounts.
func Sum(minors ...int64) int64 {
	total := decimal.Zero
	for _, m := range minors {
		total = total.Add(decimal.New(m, 0))
	}
	return total.IntPart()
}
