// Package ledger owns the ordered list of entries of one session. It
// validates and normalizes input, assigns ids, writes through to a
// persistence adapter after every mutation and notifies observers.
//
// A Ledger is not safe for concurrent use; callers that share one across
// goroutines must serialize access.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"budget/internal/aggregate"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

type Ledger struct {
	entries   []core.Entry
	nextID    int64
	persist   store.Persistence
	observers []Observer
	unsaved   bool
	logger    *log.Logger
}

type Option func(*Ledger)

func WithLogger(l *log.Logger) Option {
	return func(ld *Ledger) {
		if l != nil {
			ld.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithPersistence makes every mutation write through to p.
func WithPersistence(p store.Persistence) Option {
	return func(ld *Ledger) { ld.persist = p }
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		nextID: 1,
		logger: log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentLedger}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hydrate builds a ledger from a persisted blob. Malformed input never
// fails: unreadable records are dropped and an unreadable blob yields an
// empty ledger.
//
// The id counter is not part of the blob; it resumes at max(id)+1. Ids are
// therefore unique for the life of one Ledger value only: if the entry with
// the highest id was removed before the blob was written, a hydrated ledger
// hands that id out again.
func Hydrate(raw []byte, opts ...Option) *Ledger {
	l := New(opts...)
	entries, err := DecodeEntries(raw)
	if err != nil {
		l.logger.Warn("Stored ledger partially unreadable",
			log.NewFields().WithOperation(log.OpHydrate).WithError(err, log.ErrorTypeHydration).ToSlice()...)
	}
	l.entries = entries
	for _, e := range entries {
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
	return l
}

// Open loads the blob from p and hydrates it; subsequent mutations are saved
// to p. A failed read is returned as a *core.PersistenceError so that a
// transient outage is not mistaken for an empty ledger and overwritten.
func Open(ctx context.Context, p store.Persistence, opts ...Option) (*Ledger, error) {
	raw, ok, err := p.Load(ctx)
	if err != nil {
		return nil, &core.PersistenceError{Op: "load", Err: err}
	}
	if !ok {
		raw = nil
	}
	l := Hydrate(raw, append(opts, WithPersistence(p))...)
	l.logger.DebugContext(ctx, "Ledger opened", log.FieldEntries, len(l.entries), "found", ok)
	return l, nil
}

// Subscribe registers o to be called after every completed mutation.
func (l *Ledger) Subscribe(o Observer) {
	l.observers = append(l.observers, o)
}

// Add validates the input, appends a new entry and persists the ledger.
// On a validation failure the ledger is unchanged. If only the save fails,
// the entry is kept, returned along with a *core.PersistenceError, and the
// ledger reports Unsaved until a later write succeeds.
func (l *Ledger) Add(ctx context.Context, label, rawAmount string, typ core.EntryType, category string) (core.Entry, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Entry{}, &core.ValidationError{Field: "label", Value: label, Err: core.ErrEmptyLabel}
	}
	typ, err := core.ParseEntryType(string(typ))
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.Entry{}, err
	}

	e := core.Entry{
		ID:       l.nextID,
		Label:    label,
		Amount:   typ.Signed(amount),
		Category: core.ParseCategory(category),
	}
	l.nextID++
	l.entries = append(l.entries, e)

	l.logger.InfoContext(ctx, "Entry added",
		log.NewFields().WithOperation(log.OpCreate).
			WithEntry(e.ID, e.Label, e.Amount.String(), e.Category.String()).ToSlice()...)

	return e, l.commit(ctx, Added, e)
}

// Remove deletes the entry with id. A missing id is a no-op: false, nil,
// and nothing is written.
func (l *Ledger) Remove(ctx context.Context, id int64) (bool, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	e := l.entries[idx]
	l.entries = append(l.entries[:idx:idx], l.entries[idx+1:]...)

	l.logger.InfoContext(ctx, "Entry removed",
		log.NewFields().WithOperation(log.OpDelete).
			WithEntry(e.ID, e.Label, e.Amount.String(), e.Category.String()).ToSlice()...)

	return true, l.commit(ctx, Removed, e)
}

func (l *Ledger) indexOf(id int64) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// commit persists, then notifies, in that order.
func (l *Ledger) commit(ctx context.Context, kind ChangeKind, e core.Entry) error {
	err := l.save(ctx)
	l.notify(ctx, Change{
		Kind:    kind,
		Entry:   e,
		Entries: l.List(),
		Summary: l.Summary(),
		Saved:   err == nil,
	})
	return err
}

func (l *Ledger) save(ctx context.Context) error {
	if l.persist == nil {
		return nil
	}
	raw, err := l.Serialize()
	if err == nil {
		err = l.persist.Save(ctx, raw)
	}
	if err != nil {
		l.unsaved = true
		l.logger.ErrorContext(ctx, "Ledger save failed",
			log.NewFields().WithOperation(log.OpSave).WithError(err, log.ErrorTypePersistence).ToSlice()...)
		var pe *core.PersistenceError
		if errors.As(err, &pe) {
			return pe
		}
		return &core.PersistenceError{Op: "save", Err: err}
	}
	l.unsaved = false
	return nil
}

// Flush retries the write of the current state. It is the caller's way out
// of the Unsaved state; nothing retries automatically.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.save(ctx)
}

// Unsaved reports whether memory has diverged from the persisted blob
// because the last write failed.
func (l *Ledger) Unsaved() bool { return l.unsaved }

// List returns a copy of the entries, oldest first.
func (l *Ledger) List() []core.Entry {
	return append([]core.Entry(nil), l.entries...)
}

// Get returns the entry with id, if present.
func (l *Ledger) Get(id int64) (core.Entry, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.entries[i], true
	}
	return core.Entry{}, false
}

func (l *Ledger) Len() int { return len(l.entries) }

// Summary recomputes the aggregates of the current entries.
func (l *Ledger) Summary() aggregate.Summary {
	return aggregate.Summarize(l.entries)
}

// Serialize returns the persisted form of the ledger; Hydrate is its inverse.
func (l *Ledger) Serialize() ([]byte, error) {
	return EncodeEntries(l.entries)
}
