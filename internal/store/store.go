// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/campus-assistant/internal/domain"
)

// ErrNotFound is returned when a session snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for persisting conversation state.
type Repository interface {
	// GetSession retrieves the snapshot stored under key, or ErrNotFound.
	GetSession(ctx context.Context, key string) (*domain.Session, error)

	// SaveSession creates or replaces the snapshot for session.Key.
	SaveSession(ctx context.Context, session *domain.Session) error

	// DeleteSession removes a snapshot and its transcript.
	DeleteSession(ctx context.Context, key string) error

	// AppendTurn records one transcript entry.
	AppendTurn(ctx context.Context, turn domain.Turn) error

	// ListTurns returns the most recent turns for key, oldest first.
	ListTurns(ctx context.Context, key string, limit int) ([]domain.Turn, error)

	// CleanupExpiredSessions removes sessions not updated within ttl and
	// returns their keys.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
