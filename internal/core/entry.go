package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	// EntryType is the logical kind of an entry. It only exists at the input
	// boundary: once stored, the sign of Amount carries it.
	EntryType string

	Entry struct {
		ID       int64
		Label    string
		Amount   decimal.Decimal // negative for expenses, positive for income
		Category Category
	}
)

// ParseEntryType accepts "income" or "expense" in any case.
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", &ValidationError{Field: "type", Value: s, Err: ErrInvalidType}
	}
}

func (t EntryType) String() string { return string(t) }

// Signed applies the type's sign to the absolute value of amount.
func (t EntryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

func (e Entry) IsExpense() bool { return e.Amount.IsNegative() }
func (e Entry) IsIncome() bool  { return e.Amount.IsPositive() }

// Type derives the entry type from the amount sign.
func (e Entry) Type() EntryType {
	if e.IsExpense() {
		return Expense
	}
	return Income
}

// Validate checks the stored form of an entry: non-empty label and a
// non-zero amount within range. Category is normalized, never rejected.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Label) == "" {
		return &ValidationError{Field: "label", Value: e.Label, Err: ErrEmptyLabel}
	}
	if !InRange(e.Amount) {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if e.Amount.IsZero() {
		return &ValidationError{Field: "amount", Value: e.Amount.String(), Err: ErrZeroAmount}
	}
	return nil
}
