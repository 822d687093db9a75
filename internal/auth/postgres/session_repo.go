// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/internal/store"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db store.Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db store.Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, created_at, last_activity_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
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
	err := r.db.QueryRow(ctx, `
		SELECT session_id, user_id, created_at, last_activity_at, expires_at, is_active
		FROM sessions
		WHERE session_id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.LastActivityAt, &s.ExpiresAt, &s.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
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
	result, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET last_activity_at = $2, expires_at = $3
		WHERE session_id = $1 AND is_active
	`, id, lastActivityAt, expiresAt)
	if err != nil {
		return oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "update session activity").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Invalidate marks a session inactive. Unknown or already inactive sessions
// are not an error.
func (r *SessionRepository) Invalidate(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE session_id = $1`, id)
	if err != nil {
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "invalidate session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes sessions that are inactive or expired at now and
// returns how many rows were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1 OR NOT is_active`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}
