// Package store defines the persistence boundary of the ledger: a key-value
// store of opaque blobs, and the single-key view a ledger saves through.
package store

import (
	"context"
	"errors"
	"fmt"
)

// DefaultKey is the key a single-session ledger is stored under.
const DefaultKey = "transactions"

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Ports for outbound adapters.
type (
	// KV stores one opaque blob per key.
	KV interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, value []byte) error
		Close() error
	}

	// Persistence is what a ledger loads from and saves to.
	Persistence interface {
		// Load returns the stored blob; ok is false when nothing was stored.
		Load(ctx context.Context) (raw []byte, ok bool, err error)
		Save(ctx context.Context, raw []byte) error
	}
)

// SessionKey returns the key of a session-scoped ledger.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return DefaultKey
	}
	return DefaultKey + ":" + sessionID
}

type binding struct {
	kv  KV
	key string
}

// Bind returns the Persistence view of a single key of kv.
func Bind(kv KV, key string) Persistence {
	return &binding{kv: kv, key: key}
}

func (b *binding) Load(ctx context.Context) ([]byte, bool, error) {
	raw, err := b.kv.Get(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", b.key, err)
	}
	return raw, true, nil
}

func (b *binding) Save(ctx context.Context, raw []byte) error {
	if err := b.kv.Put(ctx, b.key, raw); err != nil {
		return fmt.Errorf("put %q: %w", b.key, err)
	}
	return nil
}
