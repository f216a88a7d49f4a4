package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/shared"
)

const (
	writeRetries   = 3
	writeBaseDelay = 100 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY under WAL
	now     func() time.Time
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers while a turn is being saved.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_key TEXT PRIMARY KEY,
		user_id TEXT,
		state TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_key TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_key, seq);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetSession retrieves the snapshot stored under key.
func (s *SQLiteStore) GetSession(ctx context.Context, key string) (*domain.Session, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM sessions WHERE session_key = ?`, key).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(snapshot), &sess); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &sess, nil
}

// SaveSession creates or replaces the snapshot for session.Key.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Key == "" {
		return errors.New("save session: empty key")
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}

	updated := session.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	created := session.CreatedAt
	if created.IsZero() {
		created = updated
	}

	var userID any
	if session.UserID != "" {
		userID = session.UserID
	}

	query := `
	INSERT INTO sessions (session_key, user_id, state, snapshot_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_key) DO UPDATE SET
		user_id = excluded.user_id,
		state = excluded.state,
		snapshot_json = excluded.snapshot_json,
		updated_at = excluded.updated_at`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.Key, userID, string(session.State()), string(snapshot),
			created.UnixMilli(), updated.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a snapshot and its transcript.
// Retries with exponential backoff on SQLITE_BUSY.
func (s *SQLiteStore) DeleteSession(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		return s.deleteKeys(ctx, []string{key})
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) deleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return tx.Commit()
}

// AppendTurn records one transcript entry.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	query := `INSERT INTO turns (id, session_key, role, content, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query,
			turn.ID, turn.SessionKey, string(turn.Role), turn.Content, turn.Source, turn.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		return nil
	})
}

// ListTurns returns up to limit of the most recent turns for key, oldest
// first. A non-positive limit returns all of them.
func (s *SQLiteStore) ListTurns(ctx context.Context, key string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, session_key, role, content, source, created_at FROM (
			SELECT seq, id, session_key, role, content, source, created_at
			FROM turns WHERE session_key = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close turn rows", "error", closeErr)
		}
	}()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role string
		var source sql.NullString
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.SessionKey, &role, &t.Content, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		t.Role = domain.Role(role)
		t.Source = source.String
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

// CleanupExpiredSessions removes sessions not updated within ttl, with their
// transcripts, and returns the removed keys.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := s.now().Add(-ttl).UnixMilli()

	rows, err := s.db.QueryContext(ctx, `SELECT session_key FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close expired sessions rows", "error", err)
	}

	if len(keys) == 0 {
		return nil, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, func() error {
		return s.deleteKeys(ctx, keys)
	}); err != nil {
		return nil, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return keys, nil
}

var _ Repository = (*SQLiteStore)(nil)
