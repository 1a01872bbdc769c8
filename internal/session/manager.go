package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/featureflags"
)

// Manager errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// ManagerConfig holds configuration for the session manager.
type ManagerConfig struct {
	Lookup    Lookup
	Scheduler Scheduler
	Logger    zerolog.Logger
	Flags     *featureflags.Service
	Metrics   *Metrics

	// Interval between ticks (default: 3s).
	Interval time.Duration

	// MaxSessions caps live sessions (default: 1000).
	MaxSessions int

	// Rand overrides the fluctuation source for every session. Tests only.
	Rand aqi.RandomSource
}

// Manager tracks live sessions by ID.
type Manager struct {
	cfg    ManagerConfig
	logger zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Controller
	// pending counts slots reserved by creates whose lookup is in flight.
	pending int
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: make(map[string]*Controller),
	}
}

// NewID generates a session identifier.
func NewID() string {
	return "ses_" + uuid.New().String()
}

// Create starts a session for the given city. The session is registered only
// when the initial lookup succeeds.
func (m *Manager) Create(ctx context.Context, query string) (*Controller, Reading, error) {
	return m.CreateWithID(ctx, NewID(), query)
}

// CreateWithID starts a session under a caller-chosen ID, replacing any session
// already registered under it. Each attach func runs on the new controller
// before its initial lookup, so a subscription made there sees every reading.
func (m *Manager) CreateWithID(ctx context.Context, id, query string, attach ...func(*Controller)) (*Controller, Reading, error) {
	m.mu.Lock()
	_, exists := m.sessions[id]
	if !exists && len(m.sessions)+m.pending >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, Reading{}, ErrTooManySessions
	}
	reserved := !exists
	if reserved {
		m.pending++
	}
	m.mu.Unlock()

	ctrl := NewController(Config{
		ID:        id,
		Lookup:    m.cfg.Lookup,
		Scheduler: m.cfg.Scheduler,
		Logger:    m.logger,
		Interval:  m.cfg.Interval,
		Rand:      m.cfg.Rand,
		Flags:     m.cfg.Flags,
		Metrics:   m.cfg.Metrics,
	})
	for _, fn := range attach {
		fn(ctrl)
	}

	reading, err := ctrl.Load(ctx, query)

	m.mu.Lock()
	if reserved {
		m.pending--
	}
	if err != nil {
		m.mu.Unlock()
		ctrl.Close()
		return nil, Reading{}, err
	}
	prev := m.sessions[id]
	// The session this create meant to replace was deleted during the lookup.
	if prev == nil && !reserved && len(m.sessions)+m.pending >= m.cfg.MaxSessions {
		m.mu.Unlock()
		ctrl.Close()
		return nil, Reading{}, ErrTooManySessions
	}
	m.sessions[id] = ctrl
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	} else {
		m.cfg.Metrics.sessionOpened(ctx)
	}

	m.logger.Info().Str("session_id", id).Str("city", reading.City).Msg("session created")
	return ctrl, reading, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctrl, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// Delete stops and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	ctrl.Close()
	m.cfg.Metrics.sessionClosed(context.Background())
	m.logger.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the IDs of all live sessions.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Close()
		m.cfg.Metrics.sessionClosed(context.Background())
	}
	m.logger.Info().Int("count", len(sessions)).Msg("all sessions closed")
}
