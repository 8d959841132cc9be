// Package session keeps the per-browser cart and admin draft in memory.
package session

import (
	"context"
	"sync"
	"time"

	"shophub/internal/admin"
	"shophub/internal/cart"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CookieName is the cookie carrying the session id.
const CookieName = "shophub_session"

// Session is the state owned by one browser.
type Session struct {
	ID     uuid.UUID
	Cart   *cart.Store
	Editor *admin.Editor

	lastSeen time.Time
}

// Manager tracks live sessions. Nothing is persisted; a restart drops every
// cart and draft.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	catalog  cart.ProductFinder
	idle     time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewManager creates a manager whose carts resolve products through catalog.
// Sessions unused for longer than idle are removed by Sweep.
func NewManager(catalog cart.ProductFinder, idle time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		catalog:  catalog,
		idle:     idle,
		now:      time.Now,
		logger:   logger.With().Str("component", "session-manager").Logger(),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:     uuid.New(),
		Cart:   cart.NewStore(m.catalog),
		Editor: admin.NewEditor(),
	}

	m.mu.Lock()
	s.lastSeen = m.now()
	m.sessions[s.ID] = s
	total := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", s.ID.String()).Int("sessions", total).Msg("session created")
	return s
}

// Get returns the session with the given id and marks it as used.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = m.now()
	return s, true
}

// Resolve returns the session named by a raw cookie value, creating a new
// one when the value is empty, malformed or unknown. created reports whether
// a new session was started.
func (m *Manager) Resolve(raw string) (s *Session, created bool) {
	if id, err := uuid.Parse(raw); err == nil {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Sweep removes sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.idle)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Info().Int("removed", removed).Int("sessions", remaining).Msg("idle sessions swept")
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
