// Package aggregate derives totals and the expense breakdown from a ledger
// snapshot. Everything here is a pure function of its input.
package aggregate

import (
	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// CategoryAmount is the absolute expense total of one category.
type CategoryAmount struct {
	Category core.Category
	Amount   decimal.Decimal
}

// Summary holds the derived figures. Values keep full precision; use Rounded
// for display.
type Summary struct {
	Balance   decimal.Decimal
	Income    decimal.Decimal
	Expense   decimal.Decimal // absolute value
	Breakdown []CategoryAmount
	Count     int
}

// Summarize computes the summary in a single pass. Breakdown categories
// appear in the order their first expense appears in entries.
func Summarize(entries []core.Entry) Summary {
	s := Summary{
		Balance: decimal.Zero,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
		Count:   len(entries),
	}
	index := make(map[core.Category]int)

	for _, e := range entries {
		s.Balance = s.Balance.Add(e.Amount)
		switch {
		case e.Amount.IsPositive():
			s.Income = s.Income.Add(e.Amount)
		case e.Amount.IsNegative():
			abs := e.Amount.Abs()
			s.Expense = s.Expense.Add(abs)
			cat := e.Category
			if !cat.Valid() {
				cat = core.Other
			}
			if i, ok := index[cat]; ok {
				s.Breakdown[i].Amount = s.Breakdown[i].Amount.Add(abs)
			} else {
				index[cat] = len(s.Breakdown)
				s.Breakdown = append(s.Breakdown, CategoryAmount{Category: cat, Amount: abs})
			}
		}
	}
	if s.Breakdown == nil {
		s.Breakdown = []CategoryAmount{}
	}
	return s
}

// IsEmpty is true iff the snapshot had no entries.
func (s Summary) IsEmpty() bool { return s.Count == 0 }

// BreakdownMap returns the breakdown keyed by category.
func (s Summary) BreakdownMap() map[core.Category]decimal.Decimal {
	m := make(map[core.Category]decimal.Decimal, len(s.Breakdown))
	for _, ca := range s.Breakdown {
		m[ca.Category] = ca.Amount
	}
	return m
}

// Rounded returns a copy with every amount rounded to two decimal places.
func (s Summary) Rounded() Summary {
	out := Summary{
		Balance:   s.Balance.Round(2),
		Income:    s.Income.Round(2),
		Expense:   s.Expense.Round(2),
		Breakdown: make([]CategoryAmount, len(s.Breakdown)),
		Count:     s.Count,
	}
	for i, ca := range s.Breakdown {
		out.Breakdown[i] = CategoryAmount{Category: ca.Category, Amount: ca.Amount.Round(2)}
	}
	return out
}
