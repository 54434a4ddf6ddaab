package ledger

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/store/memory"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	kv := memory.New()
	l, err := Open(context.Background(), store.Bind(kv, store.DefaultKey), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return l, kv
}

func mustAdd(t *testing.T, l *Ledger, label, amount string, typ core.EntryType, cat string) core.Entry {
	t.Helper()
	e, err := l.Add(context.Background(), label, amount, typ, cat)
	if err != nil {
		t.Fatalf("add %q: %v", label, err)
	}
	return e
}

func TestAddExpenseNormalizesSign(t *testing.T) {
	l, kv := newTestLedger(t)
	e := mustAdd(t, l, "Coffee", "4.50", core.Expense, "food")

	list := l.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
	if !list[0].Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Fatalf("expected -4.50, got %s", list[0].Amount)
	}
	if diff := cmp.Diff(e, list[0]); diff != "" {
		t.Fatalf("returned entry differs from stored one (-want +got):\n%s", diff)
	}
	s := l.Summary()
	if !s.Expense.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("expense expected 4.50, got %s", s.Expense)
	}
	if m := s.BreakdownMap(); len(m) != 1 || !m[core.Food].Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("unexpected breakdown %v", m)
	}
	if kv.Puts() != 1 {
		t.Fatalf("expected one write, got %d", kv.Puts())
	}
}

func TestAddIncomeIgnoresInputSign(t *testing.T) {
	l, _ := newTestLedger(t)
	e := mustAdd(t, l, "Refund", "-20", core.Income, "other")
	if !e.Amount.Equal(decimal.NewFromInt(20)) || e.Type() != core.Income {
		t.Fatalf("expected +20 income, got %s", e.Amount)
	}
}

func TestAddCategoryDefaultsToOther(t *testing.T) {
	l, _ := newTestLedger(t)
	for _, cat := range []string{"", "groceries"} {
		if e := mustAdd(t, l, "x", "1", core.Expense, cat); e.Category != core.Other {
			t.Fatalf("%q expected other, got %s", cat, e.Category)
		}
	}
}

func TestAddValidationLeavesLedgerUnchanged(t *testing.T) {
	l, kv := newTestLedger(t)
	mustAdd(t, l, "Salary", "2000", core.Income, "income")
	before := l.List()

	cases := []struct {
		label, amount string
		typ           core.EntryType
		want          error
	}{
		{"  ", "10", core.Expense, core.ErrEmptyLabel},
		{"x", "", core.Expense, core.ErrInvalidAmount},
		{"x", "ten", core.Expense, core.ErrInvalidAmount},
		{"x", "0", core.Expense, core.ErrZeroAmount},
		{"x", "5", core.EntryType("transfer"), core.ErrInvalidType},
	}
	for _, tc := range cases {
		_, err := l.Add(context.Background(), tc.label, tc.amount, tc.typ, "food")
		if !core.IsValidation(err) || !errors.Is(err, tc.want) {
			t.Fatalf("%+v: expected %v, got %v", tc, tc.want, err)
		}
	}
	if diff := cmp.Diff(before, l.List()); diff != "" {
		t.Fatalf("ledger changed on validation failure (-before +after):\n%s", diff)
	}
	if kv.Puts() != 1 {
		t.Fatalf("validation failures must not write, got %d writes", kv.Puts())
	}
}

func TestRemove(t *testing.T) {
	l, kv := newTestLedger(t)
	e := mustAdd(t, l, "Coffee", "3", core.Expense, "food")

	removed, err := l.Remove(context.Background(), e.ID+100)
	if removed || err != nil {
		t.Fatalf("missing id: expected false, nil; got %v, %v", removed, err)
	}
	if l.Len() != 1 || kv.Puts() != 1 {
		t.Fatalf("missing id must not change or write the ledger")
	}

	removed, err = l.Remove(context.Background(), e.ID)
	if !removed || err != nil {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}
	if len(l.List()) != 0 || !l.Summary().IsEmpty() {
		t.Fatalf("expected empty ledger")
	}
	raw, _, _ := store.Bind(kv, store.DefaultKey).Load(context.Background())
	if string(raw) != "[]" {
		t.Fatalf("expected persisted empty list, got %s", raw)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	l, _ := newTestLedger(t)
	a := mustAdd(t, l, "a", "1", core.Expense, "")
	b := mustAdd(t, l, "b", "1", core.Expense, "")
	if _, err := l.Remove(context.Background(), b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c := mustAdd(t, l, "c", "1", core.Expense, "")
	if c.ID == a.ID || c.ID == b.ID {
		t.Fatalf("id reused: a=%d b=%d c=%d", a.ID, b.ID, c.ID)
	}
}

func TestListIsACopy(t *testing.T) {
	l, _ := newTestLedger(t)
	mustAdd(t, l, "Coffee", "3", core.Expense, "food")
	list := l.List()
	list[0].Label = "tampered"
	if got, _ := l.Get(list[0].ID); got.Label != "Coffee" {
		t.Fatalf("internal storage mutated through List: %q", got.Label)
	}
}

func TestRoundTrip(t *testing.T) {
	l := New(WithLogger(log.Discard()))
	ctx := context.Background()
	for _, in := range []struct {
		label, amount string
		typ           core.EntryType
		cat           string
	}{
		{"Salary", "2000", core.Income, "income"},
		{"Rent", "800", core.Expense, "bills"},
		{"Coffee", "4.505", core.Expense, "food"},
		{"Ticket", "1e1", core.Expense, "transport"},
	} {
		if _, err := l.Add(ctx, in.label, in.amount, in.typ, in.cat); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	raw, err := l.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back := Hydrate(raw, WithLogger(log.Discard()))
	if diff := cmp.Diff(l.List(), back.List()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	e := mustAdd(t, back, "next", "1", core.Expense, "")
	if e.ID != 5 {
		t.Fatalf("expected counter to resume at 5, got %d", e.ID)
	}
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	l, _ := newTestLedger(t)
	ctx := context.Background()
	cats := []string{"food", "transport", "shopping", "entertainment", "bills", "income", "other", "bogus"}

	for i := 0; i < 300; i++ {
		if l.Len() > 0 && rng.Intn(3) == 0 {
			list := l.List()
			if _, err := l.Remove(ctx, list[rng.Intn(len(list))].ID); err != nil {
				t.Fatalf("remove: %v", err)
			}
		} else {
			typ := core.Expense
			if rng.Intn(2) == 0 {
				typ = core.Income
			}
			amount := strconv.FormatFloat(float64(rng.Intn(100000)+1)/100, 'f', 2, 64)
			e := mustAdd(t, l, "item", amount, typ, cats[rng.Intn(len(cats))])
			if (typ == core.Expense) != e.Amount.IsNegative() {
				t.Fatalf("sign mismatch for %s %s", typ, e.Amount)
			}
		}

		s := l.Summary()
		if !s.Balance.Equal(s.Income.Sub(s.Expense)) {
			t.Fatalf("step %d: balance %s != %s - %s", i, s.Balance, s.Income, s.Expense)
		}
		sum := decimal.Zero
		for _, ca := range s.Breakdown {
			sum = sum.Add(ca.Amount)
		}
		if !sum.Equal(s.Expense) {
			t.Fatalf("step %d: breakdown %s != expense %s", i, sum, s.Expense)
		}
		seen := map[int64]bool{}
		for _, e := range l.List() {
			if seen[e.ID] {
				t.Fatalf("step %d: duplicate id %d", i, e.ID)
			}
			seen[e.ID] = true
		}
	}
}

func TestSaveFailureIsSurfaced(t *testing.T) {
	l, kv := newTestLedger(t)
	var changes []Change
	l.Subscribe(func(_ context.Context, c Change) { changes = append(changes, c) })

	kv.FailPuts(errors.New("disk full"))
	e, err := l.Add(context.Background(), "Coffee", "3", core.Expense, "food")
	if !core.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if e.ID == 0 || l.Len() != 1 {
		t.Fatalf("mutation must be kept in memory")
	}
	if !l.Unsaved() {
		t.Fatalf("expected unsaved flag")
	}
	if len(changes) != 1 || changes[0].Saved {
		t.Fatalf("observer must be told the write failed: %+v", changes)
	}

	kv.FailPuts(nil)
	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if l.Unsaved() {
		t.Fatalf("flush should clear unsaved flag")
	}
}

func TestObserverRunsAfterSave(t *testing.T) {
	l, kv := newTestLedger(t)
	var putsSeen []int
	var kinds []ChangeKind
	l.Subscribe(func(_ context.Context, c Change) {
		putsSeen = append(putsSeen, kv.Puts())
		kinds = append(kinds, c.Kind)
		if c.Summary.Count != len(c.Entries) {
			t.Errorf("summary and snapshot disagree")
		}
	})
	e := mustAdd(t, l, "Coffee", "3", core.Expense, "food")
	if _, err := l.Remove(context.Background(), e.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, putsSeen); diff != "" {
		t.Fatalf("observer ran before save (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ChangeKind{Added, Removed}, kinds); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}
}

func TestOpenFailures(t *testing.T) {
	kv := memory.New()
	kv.FailGets(errors.New("connection refused"))
	_, err := Open(context.Background(), store.Bind(kv, store.DefaultKey), WithLogger(log.Discard()))
	if !core.IsPersistence(err) {
		t.Fatalf("expected persistence error on load failure, got %v", err)
	}

	kv = memory.New()
	kv.Seed(store.DefaultKey, []byte(`{"not":"a list"}`))
	l, err := Open(context.Background(), store.Bind(kv, store.DefaultKey), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("malformed blob must not fail: %v", err)
	}
	if l.Len() != 0 || !l.Summary().IsEmpty() {
		t.Fatalf("expected empty ledger from malformed blob")
	}
}

func TestHydrateAfterRemovingHighestID(t *testing.T) {
	l, kv := newTestLedger(t)
	ctx := context.Background()
	mustAdd(t, l, "a", "1", core.Expense, "")
	mustAdd(t, l, "b", "2", core.Expense, "")
	c := mustAdd(t, l, "c", "3", core.Expense, "")
	if removed, err := l.Remove(ctx, c.ID); err != nil || !removed {
		t.Fatalf("remove: %v %v", removed, err)
	}

	// Within one ledger the removed id stays retired.
	if e := mustAdd(t, l, "d", "4", core.Expense, ""); e.ID != 4 {
		t.Fatalf("same ledger: expected id 4, got %d", e.ID)
	}
	if _, err := l.Remove(ctx, 4); err != nil {
		t.Fatal(err)
	}

	// The counter is not persisted: a reopened ledger resumes at max(id)+1.
	reopened, err := Open(ctx, store.Bind(kv, store.DefaultKey), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if e := mustAdd(t, reopened, "e", "5", core.Expense, ""); e.ID != 3 {
		t.Fatalf("reopened: expected id 3, got %d", e.ID)
	}
	ids := []int64{}
	for _, e := range reopened.List() {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}
