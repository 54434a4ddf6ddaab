package present

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"budget/internal/aggregate"
	"budget/internal/core"
)

// EntryRow is one line of the history list.
type EntryRow struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	CatLabel string `json:"category_label"`
}

// Slice is one segment of the expense chart.
type Slice struct {
	Label   string  `json:"label"`
	Display string  `json:"display"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
}

// Report is everything a renderer needs for one ledger state.
type Report struct {
	Balance string     `json:"balance"`
	Income  string     `json:"income"`
	Expense string     `json:"expense"`
	Entries []EntryRow `json:"entries"`
	Chart   []Slice    `json:"chart"`
	Empty   bool       `json:"empty"`
	Unsaved bool       `json:"unsaved"`
}

// Build renders entries and their summary with f.
func (f *Formatter) Build(entries []core.Entry, s aggregate.Summary) Report {
	r := Report{
		Balance: f.Format(s.Balance),
		Income:  f.Signed(s.Income),
		Expense: f.Expense(s.Expense),
		Entries: make([]EntryRow, len(entries)),
		Chart:   f.Chart(s),
		Empty:   len(entries) == 0,
	}
	for i, e := range entries {
		r.Entries[i] = f.Row(e)
	}
	return r
}

func (f *Formatter) Row(e core.Entry) EntryRow {
	info := Category(e.Category)
	return EntryRow{
		ID:       e.ID,
		Label:    e.Label,
		Amount:   e.Amount.String(),
		Display:  f.Signed(e.Amount),
		Type:     e.Type().String(),
		Category: e.Category.String(),
		Icon:     info.Icon,
		CatLabel: info.Label,
	}
}

// Chart returns the breakdown slices, or a single placeholder slice when
// there are no expenses.
func (f *Formatter) Chart(s aggregate.Summary) []Slice {
	if len(s.Breakdown) == 0 {
		return []Slice{{Label: NoExpensesLabel, Value: 1, Color: placeholderColor}}
	}
	out := make([]Slice, len(s.Breakdown))
	for i, ca := range s.Breakdown {
		v, _ := ca.Amount.Float64()
		out[i] = Slice{
			Label:   Category(ca.Category).Label,
			Display: f.Format(ca.Amount),
			Value:   v,
			Color:   chartColors[i%len(chartColors)],
		}
	}
	return out
}

// Markdown renders r as a markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Budget\n\n")
	fmt.Fprintf(&b, "| Balance | Income | Expense |\n|---:|---:|---:|\n| **%s** | %s | %s |\n\n",
		r.Balance, r.Income, r.Expense)

	b.WriteString("## History\n\n")
	if r.Empty {
		b.WriteString("_No transactions yet._\n\n")
	} else {
		b.WriteString("| # | Label | Category | Amount |\n|---:|---|---|---:|\n")
		for _, e := range r.Entries {
			fmt.Fprintf(&b, "| %d | %s | %s %s | %s |\n", e.ID, escapeCell(e.Label), e.Icon, e.CatLabel, e.Display)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Expenses by category\n\n")
	for _, s := range r.Chart {
		if s.Label == NoExpensesLabel {
			fmt.Fprintf(&b, "_%s_\n", NoExpensesLabel)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.Label, s.Display)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderTerminal renders markdown for a terminal. style is a glamour
// standard style name ("dark", "light", "notty", ...); empty picks one
// from the terminal background.
func RenderTerminal(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
