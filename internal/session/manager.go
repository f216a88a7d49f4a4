// Package session keeps one conversation state per key and serializes the
// turns of each key.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/store"
)

type entry struct {
	mu       sync.Mutex // held for the whole of a turn
	sess     *domain.Session
	lastUsed time.Time
}

// Manager owns the live sessions. Turns for one key run one at a time; turns
// for different keys run in parallel.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	repo    store.Repository
	now     func() time.Time
	logger  *slog.Logger
}

// Config wires a Manager. A nil Repository keeps sessions in memory only.
type Config struct {
	Repository store.Repository
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		entries: make(map[string]*entry),
		repo:    cfg.Repository,
		now:     cfg.Now,
		logger:  cfg.Logger,
	}
}

func (m *Manager) entry(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	return e
}

// acquire returns the locked entry for key. An entry evicted between lookup
// and lock is discarded and looked up again.
func (m *Manager) acquire(key string) *entry {
	for {
		e := m.entry(key)
		e.mu.Lock()
		m.mu.Lock()
		current := m.entries[key] == e
		m.mu.Unlock()
		if current {
			return e
		}
		e.mu.Unlock()
	}
}

// load fills e.sess from the store or a fresh session. Caller holds e.mu.
func (m *Manager) load(ctx context.Context, key string, e *entry) {
	if e.sess != nil {
		return
	}
	if m.repo != nil {
		sess, err := m.repo.GetSession(ctx, key)
		switch {
		case err == nil:
			e.sess = sess
			return
		case !errors.Is(err, store.ErrNotFound):
			m.logger.Warn("failed to load session snapshot, starting fresh", "session_key", key, "error", err)
		}
	}
	e.sess = domain.NewSession(key, m.now())
}

// With runs fn with exclusive access to the session for key, then records the
// activity and saves a snapshot. Snapshot failures are logged, not returned.
func (m *Manager) With(ctx context.Context, key string, fn func(*domain.Session) error) error {
	if key == "" {
		return errors.New("session key is required")
	}
	e := m.acquire(key)
	defer e.mu.Unlock()

	m.load(ctx, key, e)
	err := fn(e.sess)

	now := m.now()
	e.sess.Touch(now)
	e.lastUsed = now
	m.persist(ctx, e.sess)
	return err
}

func (m *Manager) persist(ctx context.Context, sess *domain.Session) {
	if m.repo == nil {
		return
	}
	if err := m.repo.SaveSession(ctx, sess); err != nil {
		m.logger.Warn("failed to save session snapshot", "session_key", sess.Key, "error", err)
	}
}

// Snapshot returns a copy of the session for key, loading or creating it.
func (m *Manager) Snapshot(ctx context.Context, key string) (*domain.Session, error) {
	if key == "" {
		return nil, errors.New("session key is required")
	}
	e := m.acquire(key)
	defer e.mu.Unlock()
	m.load(ctx, key, e)
	return e.sess.Clone(), nil
}

// Delete forgets the session for key in memory and in the store.
func (m *Manager) Delete(ctx context.Context, key string) error {
	e := m.acquire(key)
	defer e.mu.Unlock()

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	e.sess = nil

	if m.repo != nil {
		if err := m.repo.DeleteSession(ctx, key); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	m.logger.Info("Session deleted", "session_key", key)
	return nil
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictIdle drops in-memory sessions idle longer than ttl. Sessions with a
// turn in progress are skipped.
func (m *Manager) evictIdle(ttl time.Duration) []string {
	threshold := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for key, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(threshold) {
			delete(m.entries, key)
			e.sess = nil
			evicted = append(evicted, key)
		}
		e.mu.Unlock()
	}
	return evicted
}
