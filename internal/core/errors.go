package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLabel    = errors.New("empty label")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroAmount    = errors.New("amount must be non-zero")
	ErrInvalidType   = errors.New("type must be income or expense")
)

// ValidationError reports user input that failed a constraint. The ledger is
// left unchanged when one is returned.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed read or write of the persisted blob.
// When returned from a mutation, the in-memory change has already been applied.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// HydrationError describes a stored blob that could not be fully read.
// It is informational: hydration always falls back to what could be kept.
type HydrationError struct {
	Dropped int
	Reason  string
}

func (e *HydrationError) Error() string {
	if e.Dropped > 0 {
		return fmt.Sprintf("hydration: dropped %d record(s): %s", e.Dropped, e.Reason)
	}
	return "hydration: " + e.Reason
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
