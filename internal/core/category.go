package core

import "strings"

// Category is the persisted classification tag of an entry. Display
// metadata (icons, printable labels) lives with the presentation layer.
type Category string

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Shopping      Category = "shopping"
	Entertainment Category = "entertainment"
	Bills         Category = "bills"
	IncomeCat     Category = "income"
	Other         Category = "other"
)

var categories = []Category{Food, Transport, Shopping, Entertainment, Bills, IncomeCat, Other}

// Categories returns the fixed enumeration in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ExpenseCategories are the categories offered for expense entries.
func ExpenseCategories() []Category {
	return []Category{Food, Transport, Shopping, Entertainment, Bills, Other}
}

// IncomeCategories are the categories offered for income entries.
func IncomeCategories() []Category {
	return []Category{IncomeCat, Other}
}

// ParseCategory normalizes s; empty or unknown values become Other.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return Other
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }
