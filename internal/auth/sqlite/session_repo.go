// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/auth"
)

// SessionRepository implements auth.SessionRepository using SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_id, created_at, last_activity_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.CreatedAt.UTC(),
		session.LastActivityAt.UTC(),
		session.ExpiresAt.UTC(),
		session.IsActive,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*auth.Session, error) {
	var s auth.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, created_at, last_activity_at, expires_at, is_active
		FROM sessions
		WHERE session_id = ?
	`, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.LastActivityAt, &s.ExpiresAt, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by id").
			Wrap(err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.LastActivityAt = s.LastActivityAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

// UpdateActivity slides an active session's expiry.
func (r *SessionRepository) UpdateActivity(ctx context.Context, id string, lastActivityAt, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_activity_at = ?, expires_at = ?
		WHERE session_id = ? AND is_active
	`, lastActivityAt.UTC(), expiresAt.UTC(), id)
	if err != nil {
		return oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "update session activity").
			Wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "read rows affected").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Invalidate marks a session inactive. Unknown or already inactive sessions
// are not an error.
func (r *SessionRepository) Invalidate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = 0 WHERE session_id = ?`, id); err != nil {
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "invalidate session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes sessions that are inactive or expired at now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ? OR NOT is_active`, now.UTC())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "read rows affected").
			Wrap(err)
	}
	return n, nil
}
