// Package services hosts the session registry: one independent ledger per
// browser session, opened lazily and evicted when idle.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"budget/internal/cache"
	"budget/internal/events"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/store"
)

var ErrInvalidSession = errors.New("invalid session id")

// SessionConfig holds configuration for the session manager
type SessionConfig struct {
	// TTL is how long an idle session stays in memory (default: 30m)
	TTL time.Duration

	// MaxSessions caps the number of live sessions (default: 1000)
	MaxSessions int
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:         30 * time.Minute,
		MaxSessions: 1000,
	}
}

// Session is a live ledger plus the lock that serializes access to it.
type Session struct {
	ID     string
	mu     sync.Mutex
	ledger *ledger.Ledger

	// Guarded by SessionManager.mu.
	refs    int
	unsaved bool
}

// SessionManager maps session ids to ledgers. There is at most one Session
// per id at any time. The LRU only proposes idle sessions for removal: a
// session still in use, or whose ledger holds changes the store has not
// accepted, stays registered until it is both released and saved.
type SessionManager struct {
	kv        store.KV
	publisher events.Publisher
	logger    *log.Logger

	mu   sync.Mutex
	live map[string]*Session
	idle *cache.LRUCache[*Session]
}

func NewSessionManager(kv store.KV, pub events.Publisher, cfg SessionConfig, logger *log.Logger) *SessionManager {
	def := DefaultSessionConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	m := &SessionManager{
		kv:        kv,
		publisher: pub,
		logger:    logger.WithComponent(log.ComponentSession),
		live:      make(map[string]*Session),
	}
	m.idle = cache.NewLRUCache(cfg.MaxSessions, cfg.TTL, cache.WithEvictCallback(m.evict))
	return m
}

// NewID returns a fresh session id.
func (m *SessionManager) NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id is a session id in the form NewID issues.
func ValidID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

// WithSession runs fn with the ledger of session id, opening it from the
// store on first use. Calls for the same session are serialized.
func (m *SessionManager) WithSession(ctx context.Context, id string, fn func(*ledger.Ledger) error) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	s := m.acquire(id)

	s.mu.Lock()
	unsaved := false
	defer func() {
		// Under s.mu so the flag cannot be overwritten by an older call.
		m.release(s, unsaved)
		s.mu.Unlock()
	}()

	if s.ledger == nil {
		l, err := OpenLedger(ctx, m.kv, store.SessionKey(id), m.publisher, id, m.logger)
		if err != nil {
			return err
		}
		s.ledger = l
		m.logger.InfoContext(ctx, "Session opened",
			log.FieldSessionID, id, log.FieldEntries, l.Len())
	}
	err := fn(s.ledger)
	unsaved = s.ledger.Unsaved()
	return err
}

// acquire returns the registered session for id, creating it if needed,
// and pins it until release.
func (m *SessionManager) acquire(id string) *Session {
	m.mu.Lock()
	s, ok := m.live[id]
	if !ok {
		s = &Session{ID: id}
		m.live[id] = s
	}
	s.refs++
	m.mu.Unlock()

	// Outside m.mu: Set may evict, and evict takes m.mu.
	m.idle.Set(id, s)
	return s
}

func (m *SessionManager) release(s *Session, unsaved bool) {
	m.mu.Lock()
	s.refs--
	s.unsaved = unsaved
	registered := m.live[s.ID] == s
	m.mu.Unlock()

	// A session dropped from the LRU while pinned re-enters it here.
	if registered {
		m.idle.Set(s.ID, s)
	}
}

// evict runs when the LRU drops id by size or age. The session is
// unregistered only if nobody holds it and its ledger is saved.
func (m *SessionManager) evict(id string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live[id] != s {
		return
	}
	switch {
	case s.unsaved:
		m.logger.Warn("Keeping unsaved session in memory", log.FieldSessionID, id)
	case s.refs > 0:
		m.logger.Debug("Keeping session in use", log.FieldSessionID, id)
	default:
		delete(m.live, id)
		m.logger.Debug("Session evicted", log.FieldSessionID, id)
	}
}

// Cache exposes the session LRU so a cache.Manager can sweep it.
func (m *SessionManager) Cache() cache.Cleaner { return m.idle }

// Len returns the number of registered sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Unsaved returns the ids of sessions whose last write failed.
func (m *SessionManager) Unsaved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.live {
		if s.unsaved {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// OpenLedger opens the ledger stored under key and subscribes an event
// notifier publishing to pub.
func OpenLedger(ctx context.Context, kv store.KV, key string, pub events.Publisher, sessionID string, logger *log.Logger) (*ledger.Ledger, error) {
	l, err := ledger.Open(ctx, store.Bind(kv, key), ledger.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w", key, err)
	}
	if pub != nil {
		if _, nop := pub.(events.Nop); !nop {
			l.Subscribe(events.Notifier(pub, sessionID, logger))
		}
	}
	return l, nil
}
