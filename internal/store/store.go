// Package store is the client-local state kept between runs: the API key,
// the cached identity, the anonymous pseudo-identifier and a best-effort
// history of submitted attempts. It stands in for the browser's
// localStorage and lives in a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"quizdesk/internal/domain"
	"quizdesk/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	quiz_id    TEXT NOT NULL,
	attempt_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS attempts_quiz ON attempts (quiz_id, created_at);
`

const (
	keyAPIKey      = "api_key"
	keyUser        = "user"
	keyAnonymousID = "anonymous_id"
)

type Config struct {
	// Path is the database file; empty means an on-disk default is NOT
	// assumed, the caller decides.
	Path string

	// EventBus, when set, lets the store record attempt history as
	// attempts complete.
	EventBus *event.Bus
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, c Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", c.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", c.Path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}

	s := &Store{db: db}

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameAttemptSubmitted, func(ctx context.Context, e event.Event) error {
			submitted := e.(domain.EventAttemptSubmitted)
			return s.RecordAttempt(ctx, submitted.Attempt.QuizID, submitted.AttemptID, time.Now())
		})
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) APIKey(ctx context.Context) (string, error) {
	return s.get(ctx, keyAPIKey)
}

func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, keyAPIKey, key)
}

func (s *Store) ClearAPIKey(ctx context.Context) error {
	return s.delete(ctx, keyAPIKey)
}

// User returns the cached identity, or nil when none is cached.
func (s *Store) User(ctx context.Context) (*domain.User, error) {
	raw, err := s.get(ctx, keyUser)
	if err != nil || raw == "" {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("store: decode cached user: %w", err)
	}
	return &user, nil
}

func (s *Store) SetUser(ctx context.Context, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("store: encode user: %w", err)
	}
	return s.set(ctx, keyUser, string(raw))
}

func (s *Store) ClearUser(ctx context.Context) error {
	return s.delete(ctx, keyUser)
}

func (s *Store) AnonymousID(ctx context.Context) (string, error) {
	return s.get(ctx, keyAnonymousID)
}

func (s *Store) SetAnonymousID(ctx context.Context, id string) error {
	return s.set(ctx, keyAnonymousID, id)
}

// AttemptRef is one locally remembered attempt.
type AttemptRef struct {
	AttemptID string
	CreatedAt time.Time
}

// RecordAttempt appends to the local attempt history for a quiz.
func (s *Store) RecordAttempt(ctx context.Context, quizID, attemptID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (quiz_id, attempt_id, created_at) VALUES (?, ?, ?)`,
		quizID, attemptID, at.Unix())
	if err != nil {
		return fmt.Errorf("store: record attempt: %w", err)
	}
	return nil
}

// AttemptHistory lists locally remembered attempts for a quiz, oldest first.
func (s *Store) AttemptHistory(ctx context.Context, quizID string) ([]AttemptRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attempt_id, created_at FROM attempts WHERE quiz_id = ? ORDER BY created_at`, quizID)
	if err != nil {
		return nil, fmt.Errorf("store: attempt history: %w", err)
	}
	defer rows.Close()

	var refs []AttemptRef
	for rows.Next() {
		var (
			ref AttemptRef
			ts  int64
		)
		if err := rows.Scan(&ref.AttemptID, &ts); err != nil {
			return nil, fmt.Errorf("store: scan attempt: %w", err)
		}
		ref.CreatedAt = time.Unix(ts, 0)
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}
