package http

import (
	"net/http"

	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/services"
)

const (
	sessionCookie = "budget_session"
	sessionMaxAge = 365 * 24 * 60 * 60
)

// sessionID returns the caller's session id, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && services.ValidID(c.Value) {
		return c.Value
	}
	id := s.sessions.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	// Later lookups within the same request see the new id.
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session issued", log.FieldSessionID, id)
	return id
}

// withLedger runs fn against the caller's ledger.
func (s *Server) withLedger(w http.ResponseWriter, r *http.Request, fn func(*ledger.Ledger) error) error {
	id := s.sessionID(w, r)
	ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldSessionID, id))
	return s.sessions.WithSession(ctx, id, fn)
}
