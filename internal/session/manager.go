package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/lekha/internal/message"
)

// Options configures a Manager.
type Options struct {
	// Speech enables the capture actions.
	Speech bool

	// SpeechLanguage is the initial BCP-47 hint for new sessions.
	SpeechLanguage string

	// DefaultView is the initial view for new sessions.
	DefaultView message.OutputPreference

	// IdleTimeout expires sessions with no activity. Zero disables expiry.
	IdleTimeout time.Duration
}

// Manager owns the live controllers.
type Manager struct {
	gen  Generator
	opts Options
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewManager creates a Manager whose controllers generate through gen.
func NewManager(gen Generator, opts Options) *Manager {
	if opts.DefaultView == "" {
		opts.DefaultView = message.OutputBoth
	}
	return &Manager{
		gen:      gen,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Controller),
	}
}

// Create starts a new idle session.
func (m *Manager) Create() *Controller {
	now := m.now()
	c := &Controller{
		id:      uuid.NewString(),
		gen:     m.gen,
		speech:  m.opts.Speech,
		now:     m.now,
		state:   StateIdle,
		status:  StatusReady,
		hint:    m.opts.SpeechLanguage,
		view:    m.opts.DefaultView,
		created: now,
		updated: now,
	}
	c.logger = slog.With("session_id", c.id)

	m.mu.Lock()
	m.sessions[c.id] = c
	m.mu.Unlock()

	c.logger.Debug("session created")
	return c
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Delete removes the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the timeout and returns how
// many were removed. Sessions with a generation running are kept.
func (m *Manager) Sweep() int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, c := range m.sessions {
		last, busy := c.idleSince()
		if busy || last.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		slog.Info("expired idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// Run sweeps expired sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.IdleTimeout <= 0 {
		return
	}
	interval := m.opts.IdleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
