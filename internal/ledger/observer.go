package ledger

import (
	"context"

	"budget/internal/aggregate"
	"budget/internal/core"
)

type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
)

// Change describes a completed mutation together with the recomputed state
// a renderer needs.
type Change struct {
	Kind    ChangeKind
	Entry   core.Entry
	Entries []core.Entry
	Summary aggregate.Summary
	Saved   bool // false when the write after this mutation failed
}

// Observer is invoked synchronously after each mutation, once the write has
// been attempted.
type Observer func(ctx context.Context, c Change)

func (l *Ledger) notify(ctx context.Context, c Change) {
	for _, o := range l.observers {
		o(ctx, c)
	}
}
