// Package present turns ledger state into what people see: formatted
// money, category labels, chart slices and a markdown report.
package present

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Formatter renders amounts in one currency.
type Formatter struct {
	currency *money.Currency
}

func NewFormatter(code string) (*Formatter, error) {
	cur := money.GetCurrency(code)
	if cur == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Formatter{currency: cur}, nil
}

// MustFormatter is NewFormatter for known-good codes.
func MustFormatter(code string) *Formatter {
	f, err := NewFormatter(code)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formatter) Currency() string { return f.currency.Code }

func (f *Formatter) toMoney(d decimal.Decimal) *money.Money {
	factor := decimal.New(1, int32(f.currency.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), f.currency.Code)
}

// Format rounds d to the currency's minor unit: -4.5 is "-$4.50".
func (f *Formatter) Format(d decimal.Decimal) string {
	return f.toMoney(d).Display()
}

// Signed is Format with an explicit "+" on positive amounts.
func (f *Formatter) Signed(d decimal.Decimal) string {
	m := f.toMoney(d)
	if m.IsPositive() {
		return "+" + m.Display()
	}
	return m.Display()
}

// Expense shows a positive expense total as an outflow: 804.5 is "-$804.50".
func (f *Formatter) Expense(d decimal.Decimal) string {
	m := f.toMoney(d.Abs().Neg())
	if m.IsZero() {
		return "-" + m.Display()
	}
	return m.Display()
}

// Fixed is the bare two-decimal rendering used in forms and JSON.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
