package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// Factory builds the runner for a new session of scriptID, wired to vars.
type Factory func(ctx context.Context, scriptID string, vars ports.StateContext) (ports.DialogRunner, error)

// VariablesFunc returns the state context for a new session.
type VariablesFunc func(sessionID string) ports.StateContext

// Session is one live dialog run.
type Session struct {
	ID        string
	ScriptID  string
	Runner    ports.DialogRunner
	Variables ports.StateContext
	CreatedAt time.Time
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns live sessions and serializes access to each of them.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	factory Factory
	vars    VariablesFunc

	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithVariables sets how each session gets its variables.
// Defaults to a fresh in-memory store per session.
func WithVariables(fn VariablesFunc) Option {
	return func(m *Manager) {
		m.vars = fn
	}
}

// NewManager creates a session manager that builds runners with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.vars == nil {
		m.vars = func(string) ports.StateContext { return memory.NewVariables() }
	}
	return m
}

// Start creates a session for scriptID under a fresh ID.
func (m *Manager) Start(ctx context.Context, scriptID string) (*Session, error) {
	id := uuid.NewString()
	vars := m.vars(id)

	runner, err := m.factory(ctx, scriptID, vars)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		ScriptID:  scriptID,
		Runner:    runner,
		Variables: vars,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session started", "session_id", id, "script", scriptID)
	return s, nil
}

// Get returns a live session without locking it.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context, s *Session) error {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		m.logger.Info("session deleted", "session_id", sessionID)
		return nil
	})
}

// List returns the IDs of live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the lock for the session.
// Runners are not safe for concurrent use, so every mutation goes through here.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *Session) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	// Looked up under the lock so a concurrent Delete is observed.
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}
