// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/samber/oops"
)

// Session configuration.
const (
	SessionIDBytes         = 16 // 128 bits of entropy
	DefaultSessionDuration = 5 * time.Minute
)

// Session is proof of an authenticated user-agent.
type Session struct {
	ID             string
	UserID         int64
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	IsActive       bool
}

// IsValidAt reports whether the session is active and unexpired at t.
func (s *Session) IsValidAt(t time.Time) bool {
	return s.IsActive && t.Before(s.ExpiresAt)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SessionIssuer mints session identifiers and computes sliding expiries.
type SessionIssuer struct {
	duration time.Duration
	clock    Clock
}

// NewSessionIssuer creates a SessionIssuer. A non-positive duration
// falls back to DefaultSessionDuration; a nil clock uses SystemClock.
func NewSessionIssuer(duration time.Duration, clock Clock) *SessionIssuer {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &SessionIssuer{duration: duration, clock: clock}
}

// Duration returns the configured sliding-window length.
func (i *SessionIssuer) Duration() time.Duration {
	return i.duration
}

// Now returns the issuer's notion of the current time.
func (i *SessionIssuer) Now() time.Time {
	return i.clock.Now()
}

// NewSessionID returns a random identifier encoded as unpadded base64url.
func (i *SessionIssuer) NewSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionIDBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ExpirationTime returns now plus the configured duration.
func (i *SessionIssuer) ExpirationTime() time.Time {
	return i.clock.Now().Add(i.duration)
}

// IsExpired reports whether now is at or past expiresAt.
func (i *SessionIssuer) IsExpired(expiresAt time.Time) bool {
	return !i.clock.Now().Before(expiresAt)
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session. Returns an error wrapping ErrNotFound
	// when no row exists.
	GetByID(ctx context.Context, id string) (*Session, error)

	// UpdateActivity sets last_activity_at and expires_at on an active
	// session. Returns an error wrapping ErrNotFound when no active row
	// exists.
	UpdateActivity(ctx context.Context, id string, lastActivityAt, expiresAt time.Time) error

	// Invalidate marks the session inactive. Missing or already inactive
	// sessions are not an error.
	Invalidate(ctx context.Context, id string) error

	// DeleteExpired removes every session whose expiry is at or before now or is
	// inactive, returning the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
