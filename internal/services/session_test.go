package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"budget/internal/core"
	"budget/internal/events"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/store/memory"
)

func TestSessionsAreIndependent(t *testing.T) {
	kv := memory.New()
	m := NewSessionManager(kv, nil, SessionConfig{}, log.Discard())
	ctx := context.Background()
	a, b := m.NewID(), m.NewID()

	err := m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		_, err := l.Add(ctx, "Coffee", "3", core.Expense, "food")
		return err
	})
	if err != nil {
		t.Fatalf("add to a: %v", err)
	}

	var lenB int
	if err := m.WithSession(ctx, b, func(l *ledger.Ledger) error {
		lenB = l.Len()
		return nil
	}); err != nil {
		t.Fatalf("read b: %v", err)
	}
	if lenB != 0 {
		t.Errorf("session b sees %d entries from a", lenB)
	}
	if _, err := kv.Get(ctx, store.SessionKey(a)); err != nil {
		t.Errorf("session a not persisted under its key: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestSessionReloadsAfterEviction(t *testing.T) {
	kv := memory.New()
	m := NewSessionManager(kv, nil, SessionConfig{MaxSessions: 1}, log.Discard())
	ctx := context.Background()
	a, b := m.NewID(), m.NewID()

	add := func(l *ledger.Ledger) error {
		_, err := l.Add(ctx, "Salary", "100", core.Income, "income")
		return err
	}
	if err := m.WithSession(ctx, a, add); err != nil {
		t.Fatal(err)
	}
	if err := m.WithSession(ctx, b, add); err != nil {
		t.Fatal(err)
	}

	var got int
	if err := m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		got = l.Len()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("reloaded session has %d entries, want 1", got)
	}
}

func TestWithSessionInvalidID(t *testing.T) {
	m := NewSessionManager(memory.New(), nil, SessionConfig{}, log.Discard())
	err := m.WithSession(context.Background(), "../etc", func(*ledger.Ledger) error { return nil })
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestWithSessionLoadFailure(t *testing.T) {
	kv := memory.New()
	kv.FailGets(errors.New("timeout"))
	m := NewSessionManager(kv, nil, SessionConfig{}, log.Discard())

	called := false
	err := m.WithSession(context.Background(), m.NewID(), func(*ledger.Ledger) error {
		called = true
		return nil
	})
	if !core.IsPersistence(err) || called {
		t.Fatalf("expected persistence error before fn runs, got %v (called=%v)", err, called)
	}
}

func TestWithSessionSerializesAccess(t *testing.T) {
	m := NewSessionManager(memory.New(), nil, SessionConfig{}, log.Discard())
	ctx := context.Background()
	id := m.NewID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithSession(ctx, id, func(l *ledger.Ledger) error {
				_, err := l.Add(ctx, "x", "1", core.Expense, "")
				return err
			})
		}()
	}
	wg.Wait()

	_ = m.WithSession(ctx, id, func(l *ledger.Ledger) error {
		if l.Len() != 20 {
			t.Errorf("Len() = %d, want 20", l.Len())
		}
		return nil
	})
}

func TestOpenLedgerPublishes(t *testing.T) {
	rec := &events.Recorder{}
	l, err := OpenLedger(context.Background(), memory.New(), store.DefaultKey, rec, "", log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Add(context.Background(), "Coffee", "3", core.Expense, "food"); err != nil {
		t.Fatal(err)
	}
	if len(rec.Events) != 1 || rec.Events[0].Type != events.TypeEntryAdded {
		t.Fatalf("unexpected events %+v", rec.Events)
	}
}

func TestValidID(t *testing.T) {
	m := NewSessionManager(memory.New(), nil, SessionConfig{}, log.Discard())
	tests := []struct {
		id   string
		want bool
	}{
		{m.NewID(), true},
		{"", false},
		{"../../etc/passwd", false},
		{"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}", false},
		{"6BA7B810-9DAD-11D1-80B4-00C04FD430C8", false},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestUnsavedSessionSurvivesEviction(t *testing.T) {
	kv := memory.New()
	m := NewSessionManager(kv, nil, SessionConfig{MaxSessions: 1}, log.Discard())
	ctx := context.Background()
	a, b := m.NewID(), m.NewID()

	kv.FailPuts(errors.New("disk full"))
	err := m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		_, err := l.Add(ctx, "Rent", "800", core.Expense, "bills")
		return err
	})
	if !core.IsPersistence(err) {
		t.Fatalf("add with failing store: got %v, want persistence error", err)
	}
	kv.FailPuts(nil)

	// Pushes a out of the LRU.
	if err := m.WithSession(ctx, b, func(*ledger.Ledger) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if got := m.Unsaved(); len(got) != 1 || got[0] != a {
		t.Errorf("Unsaved() = %v, want [%s]", got, a)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	err = m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		if l.Len() != 1 || !l.Unsaved() {
			t.Errorf("session a: %d entries, unsaved %v; want 1, true", l.Len(), l.Unsaved())
		}
		return l.Flush(ctx)
	})
	if err != nil {
		t.Fatalf("flush a: %v", err)
	}
	if got := m.Unsaved(); len(got) != 0 {
		t.Errorf("Unsaved() after flush = %v", got)
	}

	// Once saved, a is evictable again.
	if err := m.WithSession(ctx, b, func(*ledger.Ledger) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() after saved eviction = %d, want 1", m.Len())
	}
}

func TestHeldSessionIsNotDuplicated(t *testing.T) {
	m := NewSessionManager(memory.New(), nil, SessionConfig{MaxSessions: 1}, log.Discard())
	ctx := context.Background()
	a, b := m.NewID(), m.NewID()

	var held *ledger.Ledger
	err := m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		held = l
		// Opening b while a is in use pushes a out of the LRU.
		return m.WithSession(ctx, b, func(*ledger.Ledger) error { return nil })
	})
	if err != nil {
		t.Fatal(err)
	}

	err = m.WithSession(ctx, a, func(l *ledger.Ledger) error {
		if l != held {
			t.Error("session a was reopened as a second ledger")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentSessionsUnderEviction(t *testing.T) {
	kv := memory.New()
	m := NewSessionManager(kv, nil, SessionConfig{MaxSessions: 1}, log.Discard())
	ctx := context.Background()
	ids := []string{m.NewID(), m.NewID(), m.NewID()}
	const perSession = 25

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < perSession; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				err := m.WithSession(ctx, id, func(l *ledger.Ledger) error {
					_, err := l.Add(ctx, "Snack", "1.50", core.Expense, "food")
					return err
				})
				if err != nil {
					t.Errorf("add to %s: %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	fresh := NewSessionManager(kv, nil, SessionConfig{}, log.Discard())
	for _, id := range ids {
		err := fresh.WithSession(ctx, id, func(l *ledger.Ledger) error {
			if l.Len() != perSession {
				t.Errorf("session %s stored %d entries, want %d", id, l.Len(), perSession)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}
