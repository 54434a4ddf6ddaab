// Package core holds the budget domain model: entries, categories, amount
// parsing and the error taxonomy shared by every other package.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are bounded so that every stored value renders in a few dozen
// characters and fits int64 minor units when displayed.
const (
	// MaxAmountScale is the most decimal places an amount may carry.
	MaxAmountScale = 12
	maxExponent    = 18
)

// MaxAmount is the largest absolute amount accepted: one quadrillion.
var MaxAmount = decimal.New(1, 15)

// InRange reports whether d is within MaxAmount and MaxAmountScale. The
// exponent is checked first so that absurd inputs are never expanded.
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -MaxAmountScale || exp > maxExponent {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxAmount)
}

// ParseAmount converts user input into the absolute value of an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. A leading
// sign is tolerated and discarded because the entry type decides the sign.
// Full precision is kept; rounding only happens at display time.
//
// Examples:
//   ParseAmount("4.50")   -> 4.5, nil
//   ParseAmount("4,50")   -> 4.5, nil
//   ParseAmount("-800")   -> 800, nil
//   ParseAmount("0")      -> error (ErrZeroAmount)
//   ParseAmount("1e400")  -> error (ErrInvalidAmount)
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" || s[0] == '+' || s[0] == '-' {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	if !InRange(d) {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	if d.IsZero() {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Err: ErrZeroAmount}
	}
	return d.Abs(), nil
}
