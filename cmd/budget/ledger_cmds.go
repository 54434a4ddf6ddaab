package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"budget/internal/core"
	"budget/internal/present"
)

var ledgerCommands = []subcommands.Command{
	&addCmd{},
	&rmCmd{},
	&listCmd{},
	&summaryCmd{},
}

type addCmd struct {
	income   bool
	category string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an expense or an income" }
func (*addCmd) Usage() string {
	return `budget add [-income] [-c <category>] <label> <amount>

  Records an expense, or an income with -income. The amount is always
  entered as a positive number; its sign comes from the type. Both "4.50"
  and "4,50" are accepted. Categories: food, transport, shopping,
  entertainment, bills, income, other.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.income, "income", false, "Record an income instead of an expense.")
	f.StringVar(&c.category, "c", "", "Category of the entry (default: other, or income with -income).")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "add needs a label and an amount")
		return subcommands.ExitUsageError
	}
	label := strings.Join(f.Args()[:f.NArg()-1], " ")
	amount := f.Arg(f.NArg() - 1)

	typ, category := core.Expense, c.category
	if c.income {
		typ = core.Income
		if category == "" {
			category = core.IncomeCat.String()
		}
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rt.close()

	l, err := rt.openLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	e, err := l.Add(ctx, label, amount, typ, category)
	switch {
	case core.IsValidation(err):
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	case err != nil:
		reportUnsaved(err)
		printRow(os.Stdout, rt.formatter.Row(e))
		return subcommands.ExitFailure
	}
	printRow(os.Stdout, rt.formatter.Row(e))
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove entries by id" }
func (*rmCmd) Usage() string {
	return `budget rm <id>...

  Removes the entries with the given ids. Unknown ids are reported and
  otherwise ignored.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "rm needs at least one id")
		return subcommands.ExitUsageError
	}
	ids := make([]int64, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid id %q\n", arg)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rt.close()

	l, err := rt.openLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, id := range ids {
		removed, err := l.Remove(ctx, id)
		if err != nil {
			reportUnsaved(err)
			status = subcommands.ExitFailure
		}
		if removed {
			fmt.Printf("removed #%d\n", id)
		} else {
			fmt.Printf("no entry #%d\n", id)
		}
	}
	return status
}

type listCmd struct {
	asJSON bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list entries, oldest first" }
func (*listCmd) Usage() string {
	return `budget list [-json]
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print the entries as JSON.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rt.close()

	l, err := rt.openLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	entries := l.List()
	rows := make([]present.EntryRow, len(entries))
	for i, e := range entries {
		rows[i] = rt.formatter.Row(e)
	}
	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	for _, r := range rows {
		printRow(os.Stdout, r)
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	style string
	width int
	raw   bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show balance, totals, history and the expense breakdown" }
func (*summaryCmd) Usage() string {
	return `budget summary [-style <name>] [-width <n>] [-raw]

  Renders the ledger report as markdown for the terminal.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.style, "style", "", "Glamour style (dark, light, notty, ...). Empty picks one from the terminal.")
	f.IntVar(&c.width, "width", 80, "Word wrap width.")
	f.BoolVar(&c.raw, "raw", false, "Print the markdown source instead of rendering it.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rt.close()

	l, err := rt.openLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	md := rt.formatter.Build(l.List(), l.Summary()).Markdown()
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	out, err := present.RenderTerminal(md, c.style, c.width)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

func printRow(w io.Writer, r present.EntryRow) {
	fmt.Fprintf(w, "#%-4d %-28s %14s  %s %s\n", r.ID, r.Label, r.Display, r.Icon, r.CatLabel)
}
