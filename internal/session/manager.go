package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager tracks the live sessions of the server. Sessions share no state;
// the manager only maps ids to sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     *Deps
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewManager creates an empty session registry
func NewManager(deps *Deps, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new session with a random id
func (m *Manager) Create() *Session {
	s := New(uuid.New().String(), m.deps)
	s.now = m.now
	s.touch()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debugf("session %s started", s.ID)
	return s
}

// Get returns a live session and marks it active
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		s.touch()
	}
	return s, ok
}

// End discards a session and its state
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.logger.Debugf("session %s ended", id)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep ends every session idle for longer than maxIdle and returns how many were ended
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	ended := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			ended++
		}
	}
	return ended
}

// Run sweeps idle sessions every interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Infof("ended %d idle sessions, %d remain", n, m.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}
