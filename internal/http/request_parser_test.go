package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"label":" Coffee ","amount":4.50,"type":"expense","category":"food","flag":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("IsJSON() = false")
	}

	tests := map[string]string{
		"label":    "Coffee",
		"amount":   "4.50",
		"type":     "expense",
		"category": "food",
		"flag":     "true",
		"missing":  "",
	}
	for key, want := range tests {
		if got := p.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/entries",
		strings.NewReader("label=Bus+ticket&amount=2%2C50&type=expense"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Fatal("IsJSON() = true for form body")
	}
	if got := p.Get("label"); got != "Bus ticket" {
		t.Errorf("label = %q", got)
	}
	if got := p.Get("amount"); got != "2,50" {
		t.Errorf("amount = %q", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("label"); got != "" {
		t.Errorf("Get on empty body = %q", got)
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(`{"label":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if err := p.Parse(); err == nil {
		t.Fatal("second Parse should return the same error")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"tab\there", "tab here"},
		{"nul\x00byte", "nulbyte"},
		{"line\nbreak", "linebreak"},
		{"caffè", "caffè"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWantsHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		accept      string
		want        bool
	}{
		{"browser form", "application/x-www-form-urlencoded", "text/html,application/xhtml+xml", true},
		{"form without accept", "application/x-www-form-urlencoded", "", false},
		{"json client", "application/json", "text/html", false},
		{"form with charset", "application/x-www-form-urlencoded; charset=UTF-8", "text/html", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Content-Type", tt.contentType)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if got := wantsHTML(req); got != tt.want {
				t.Errorf("wantsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}
