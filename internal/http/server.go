// Package http serves the ledger page and its JSON API. Every browser gets
// its own ledger, keyed by a session cookie.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/present"
	"budget/internal/services"
	appweb "budget/web"
)

// Options configures NewServer. Sessions and Formatter are required.
type Options struct {
	Addr               string
	Sessions           *services.SessionManager
	Formatter          *present.Formatter
	Logger             *log.Logger
	RateLimitPerMinute int
	// Ready backs /readyz; nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *services.SessionManager
	formatter *present.Formatter
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	ready     func(context.Context) error
	logger    *log.Logger
}

// NewServer builds the router and middleware chain. Call Close or Shutdown
// to stop the rate limiter along with the listener.
func NewServer(opts Options) (*Server, error) {
	if opts.Sessions == nil || opts.Formatter == nil {
		return nil, errors.New("http: sessions and formatter are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		templates: t,
		sessions:  opts.Sessions,
		formatter: opts.Formatter,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ClientIP),
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/entries", s.handleListEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries/{id}", s.handleDeleteEntry).Methods(http.MethodDelete)
	api.HandleFunc("/entries/{id}/delete", s.handleDeleteEntry).Methods(http.MethodPost)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/flush", s.handleFlush).Methods(http.MethodPost)

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	r.PathPrefix("/static/").Handler(security.StaticAssets(3600)(static))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		log.Middleware(s.logger),
		s.tracer.Handler,
		log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }),
		security.Headers(security.DefaultHeadersConfig()),
		detector.Middleware,
		s.limiter.Middleware(detector.ClientIP, onRateLimited, http.MethodPost, http.MethodDelete),
	}
	var h http.Handler = r
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.RegisterOnShutdown(s.limiter.Stop)
	return s, nil
}

// Close stops the listener and the rate limiter.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
