package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"budget/internal/store"
)

func TestFindRow(t *testing.T) {
	rows := [][]interface{}{
		{"transactions", "[]"},
		{},
		{"transactions:abc", `[{"id":1}]`},
		{"lonely"},
	}
	if row, v, ok := findRow(rows, "transactions:abc"); !ok || row != 3 || v != `[{"id":1}]` {
		t.Fatalf("unexpected match row=%d v=%q ok=%v", row, v, ok)
	}
	if row, v, ok := findRow(rows, "lonely"); !ok || row != 4 || v != "" {
		t.Fatalf("unexpected match row=%d v=%q ok=%v", row, v, ok)
	}
	if _, _, ok := findRow(rows, "missing"); ok {
		t.Fatalf("expected no match")
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{spreadsheetID: "id", sheet: "Budget"}
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error without service")
	}
}

// fakeSheets serves the three values endpoints the client uses.
type fakeSheets struct {
	mu   sync.Mutex
	rows [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Values [][]interface{} `json:"values"`
	}
	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Budget!A:B", "values": f.rows})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.rows = append(f.rows, body.Values...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		_ = json.NewDecoder(r.Body).Decode(&body)
		for i, row := range f.rows {
			if len(row) > 0 && row[0] == body.Values[0][0] {
				f.rows[i] = body.Values[0]
			}
		}
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func TestClientAgainstFakeAPI(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := New(ctx, Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := c.Get(ctx, "transactions"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.Put(ctx, "transactions", []byte(`[]`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := c.Put(ctx, "transactions", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := c.Get(ctx, "transactions")
	if err != nil || string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}
	if len(fake.rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(fake.rows))
	}
}

func TestPutRejectsOversizedBlob(t *testing.T) {
	err := (&Client{}).Put(context.Background(), "k", make([]byte, maxCellChars+1))
	if !errors.Is(err, ErrBlobTooLarge) {
		t.Fatalf("expected ErrBlobTooLarge, got %v", err)
	}
}
