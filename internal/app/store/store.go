/*
Package store persists chat sessions and messages in PostgreSQL.

The relay treats every call here as best-effort: persistence failures are
logged by the caller and never interrupt a live chat.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"havenchat/internal/pkg/randx"
)

// Session statuses. A session is terminal once it leaves "active".
const (
	StatusActive    = "active"
	StatusEnded     = "ended"
	StatusAbandoned = "abandoned"
)

// Session is a persisted two-party chat session record.
type Session struct {
	ID        string
	UserA     string
	UserB     string
	Status    string
	CreatedAt time.Time
	EndedAt   *time.Time
}

// SessionStore is the persistence boundary the relay depends on.
type SessionStore interface {
	// CreateSession records a new active session under the given id.
	CreateSession(ctx context.Context, sessionID, userA, userB string) (Session, error)

	// AppendMessage records one chat message. Fire-and-forget from the
	// relay's perspective.
	AppendMessage(ctx context.Context, sessionID, senderID, content string) error

	// EndSession marks the session ended. Idempotent: ending a session that
	// is not active is a no-op.
	EndSession(ctx context.Context, sessionID string) error

	// GetSession fetches a session record by id.
	GetSession(ctx context.Context, sessionID string) (Session, error)

	// AbandonActiveSessions marks every still-active session abandoned.
	// Run at startup: active rows from a previous process have no reachable
	// connections and can never resume.
	AbandonActiveSessions(ctx context.Context) (int64, error)
}

// PGStore is the PostgreSQL-backed SessionStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an existing connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// CreateSession inserts an active session row.
func (s *PGStore) CreateSession(ctx context.Context, sessionID, userA, userB string) (Session, error) {
	const q = `
		INSERT INTO chat_sessions (id, user_a, user_b, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	sess := Session{
		ID:     sessionID,
		UserA:  userA,
		UserB:  userB,
		Status: StatusActive,
	}

	if err := s.pool.QueryRow(ctx, q, sessionID, userA, userB, StatusActive).Scan(&sess.CreatedAt); err != nil {
		return Session{}, fmt.Errorf("failed to create chat session: %w", err)
	}

	return sess, nil
}

// AppendMessage inserts one message row.
func (s *PGStore) AppendMessage(ctx context.Context, sessionID, senderID, content string) error {
	const q = `
		INSERT INTO chat_messages (id, session_id, sender_id, content)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.pool.Exec(ctx, q, randx.MessageID(), sessionID, senderID, content); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// EndSession marks an active session ended. Rows already ended or abandoned
// are left untouched, making repeated teardown a no-op.
func (s *PGStore) EndSession(ctx context.Context, sessionID string) error {
	const q = `
		UPDATE chat_sessions
		SET status = $2, ended_at = now()
		WHERE id = $1 AND status = $3`

	if _, err := s.pool.Exec(ctx, q, sessionID, StatusEnded, StatusActive); err != nil {
		return fmt.Errorf("failed to end chat session: %w", err)
	}

	return nil
}

// GetSession fetches a session row by id.
func (s *PGStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	const q = `
		SELECT id, user_a, user_b, status, created_at, ended_at
		FROM chat_sessions
		WHERE id = $1`

	var sess Session
	err := s.pool.QueryRow(ctx, q, sessionID).Scan(
		&sess.ID, &sess.UserA, &sess.UserB, &sess.Status, &sess.CreatedAt, &sess.EndedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to fetch chat session: %w", err)
	}

	return sess, nil
}

// AbandonActiveSessions reconciles sessions orphaned by a previous process.
func (s *PGStore) AbandonActiveSessions(ctx context.Context) (int64, error) {
	const q = `
		UPDATE chat_sessions
		SET status = $1, ended_at = now()
		WHERE status = $2`

	tag, err := s.pool.Exec(ctx, q, StatusAbandoned, StatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon active sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
