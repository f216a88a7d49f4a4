package session

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often the TTL worker looks for idle sessions.
const DefaultSweepInterval = 5 * time.Minute

// CleanupCallback is called for every session key removed by the TTL worker.
type CleanupCallback func(key string)

// Sweep evicts sessions idle longer than ttl from memory and from the store,
// and returns how many keys were removed.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration, onCleanup CleanupCallback) int {
	removed := make(map[string]struct{})
	for _, key := range m.evictIdle(ttl) {
		removed[key] = struct{}{}
	}

	if m.repo != nil {
		keys, err := m.repo.CleanupExpiredSessions(ctx, ttl)
		if err != nil {
			m.logger.Error("TTL worker failed to cleanup expired sessions", "error", err)
		}
		for _, key := range keys {
			// A key with a live entry was used after its last snapshot failed to save.
			m.mu.Lock()
			_, live := m.entries[key]
			m.mu.Unlock()
			if !live {
				removed[key] = struct{}{}
			}
		}
	}

	for key := range removed {
		if onCleanup != nil {
			onCleanup(key)
		}
	}
	if len(removed) > 0 {
		m.logger.Info("TTL worker cleanup completed", "cleaned", len(removed))
	}
	return len(removed)
}

// RunTTLWorker sweeps every interval until ctx is done. It always returns
// nil so it can run inside an errgroup.
func (m *Manager) RunTTLWorker(ctx context.Context, interval, ttl time.Duration, onCleanup CleanupCallback) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.logger.Info("TTL worker started", "interval", interval, "ttl", ttl)

	for {
		select {
		case <-ticker.C:
			m.Sweep(ctx, ttl, onCleanup)
		case <-ctx.Done():
			m.logger.Info("TTL worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}
