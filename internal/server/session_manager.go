package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/scheduler/internal/agent"
	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/logging"
)

// DefaultSessionTimeout is how long an idle session is kept.
const DefaultSessionTimeout = 30 * time.Minute

// DefaultCleanupInterval is how often expired sessions are removed.
const DefaultCleanupInterval = time.Minute

// maxSessionIDLength bounds client-supplied session IDs.
const maxSessionIDLength = 128

// ErrInvalidSessionID is returned for session IDs a client may not use.
var ErrInvalidSessionID = errors.New("invalid session id")

// OrchestratorFactory creates the orchestrator for a new session.
type OrchestratorFactory func(sessionID string) (*agent.Orchestrator, error)

// sessionInfo tracks session metadata for cleanup
type sessionInfo struct {
	orchestrator *agent.Orchestrator
	lastAccess   time.Time
}

// SessionManager keeps one orchestrator per session.
type SessionManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.Mutex
	factory        OrchestratorFactory
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	now            func() time.Time
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
}

// SessionManagerConfig configures a SessionManager.
type SessionManagerConfig struct {
	Factory OrchestratorFactory

	// Timeout is the idle time after which a session expires. Zero selects
	// DefaultSessionTimeout.
	Timeout time.Duration
	// CleanupInterval is how often expired sessions are collected. Zero
	// selects DefaultCleanupInterval; a negative value disables the
	// background cleanup.
	CleanupInterval time.Duration

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// NewSessionManager creates a session manager and starts its cleanup loop.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Factory == nil {
		return nil, errors.New("session manager needs an orchestrator factory")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSessionTimeout
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &SessionManager{
		sessions:       make(map[string]*sessionInfo),
		factory:        cfg.Factory,
		cleanupDone:    make(chan struct{}),
		sessionTimeout: cfg.Timeout,
		now:            time.Now,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}

	if cfg.CleanupInterval > 0 {
		m.cleanupTicker = time.NewTicker(cfg.CleanupInterval)
		go m.cleanupExpiredSessions()
	}
	return m, nil
}

// Get returns the orchestrator for sessionID, creating the session when it
// does not exist. An empty sessionID starts a new session with a generated
// ID. The returned ID is the one the client must send next time.
func (m *SessionManager) Get(sessionID string) (*agent.Orchestrator, string, error) {
	if len(sessionID) > maxSessionIDLength {
		return nil, "", ErrInvalidSessionID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[sessionID]; ok {
		info.lastAccess = m.now()
		return info.orchestrator, sessionID, nil
	}

	orch, err := m.factory(sessionID)
	if err != nil {
		return nil, "", err
	}
	m.sessions[sessionID] = &sessionInfo{orchestrator: orch, lastAccess: m.now()}
	m.metrics.IncrementActiveSessions(context.Background())
	m.logger.Debug("session started", logging.Session(sessionID))
	return orch, sessionID, nil
}

// RemoveSession removes a session from the manager
func (m *SessionManager) RemoveSession(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	m.metrics.DecrementActiveSessions(context.Background())
	return true
}

// ListSessions returns all active session IDs
func (m *SessionManager) ListSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]string, 0, len(m.sessions))
	for sessionID := range m.sessions {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// ExpireIdle removes sessions idle for longer than the timeout and returns
// how many were removed.
func (m *SessionManager) ExpireIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for sessionID, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.sessionTimeout {
			delete(m.sessions, sessionID)
			m.metrics.DecrementActiveSessions(context.Background())
			expired++
		}
	}
	return expired
}

// cleanupExpiredSessions periodically removes expired sessions
func (m *SessionManager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.ExpireIdle(); n > 0 {
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		if m.cleanupTicker != nil {
			m.cleanupTicker.Stop()
		}
		close(m.cleanupDone)
	})
}
