package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"budget/internal/store"
)

// Requires a reachable database; set POSTGRES_TEST_DSN to run.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	key := store.SessionKey(uuid.NewString())
	if _, err := s.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, key, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil || string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}
}
