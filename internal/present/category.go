package present

import "budget/internal/core"

// CategoryInfo is how a category is shown to people.
type CategoryInfo struct {
	Icon  string
	Label string
}

var categoryInfo = map[core.Category]CategoryInfo{
	core.IncomeCat:     {Icon: "💰", Label: "Income"},
	core.Food:          {Icon: "🍔", Label: "Food"},
	core.Transport:     {Icon: "🚕", Label: "Transport"},
	core.Shopping:      {Icon: "🛍️", Label: "Shopping"},
	core.Entertainment: {Icon: "🎬", Label: "Entertainment"},
	core.Bills:         {Icon: "🧾", Label: "Bills"},
	core.Other:         {Icon: "📦", Label: "Other"},
}

// Category returns display metadata for c; unknown categories show as Other.
func Category(c core.Category) CategoryInfo {
	if info, ok := categoryInfo[c]; ok {
		return info
	}
	return categoryInfo[core.Other]
}

// Option is one choice of the category picker.
type Option struct {
	Value string
	Label string
}

// CategoryOptions lists the picker choices for an entry type.
func CategoryOptions(t core.EntryType) []Option {
	if t == core.Income {
		return []Option{
			{Value: core.IncomeCat.String(), Label: "Salary/Income"},
			{Value: core.Other.String(), Label: "Other Income"},
		}
	}
	cats := core.ExpenseCategories()
	out := make([]Option, len(cats))
	for i, c := range cats {
		info := Category(c)
		out[i] = Option{Value: c.String(), Label: info.Label + " " + info.Icon}
	}
	return out
}

// chartColors are assigned to breakdown slices in order.
var chartColors = []string{
	"#f72585",
	"#7209b7",
	"#3a0ca3",
	"#4361ee",
	"#4cc9f0",
	"#2ecc71",
	"#f39c12",
}

const (
	// NoExpensesLabel labels the placeholder slice of an empty chart.
	NoExpensesLabel = "No Expenses"
	placeholderColor = "rgba(255,255,255,0.1)"
)
