// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Outcome labels reported to an Observer.
const (
	ResultSuccess   = "success"
	ResultInvalid   = "invalid"
	ResultConflict  = "conflict"
	ResultError     = "error"
	ResultNoToken   = "no_token"
	ResultNotFound  = "not_found"
	ResultInactive  = "inactive"
	ResultExpired   = "expired"
	ResultOrphaned  = "orphaned"
	ResultRefreshed = "refreshed"
)

// Observer receives authentication outcomes, typically for metrics.
type Observer interface {
	ObserveRegistration(result string)
	ObserveLogin(result string)
	ObserveValidation(result string)
	ObserveLogout()
	ObserveSweep(removed int64)
}

type nopObserver struct{}

func (nopObserver) ObserveRegistration(string) {}
func (nopObserver) ObserveLogin(string)        {}
func (nopObserver) ObserveValidation(string)   {}
func (nopObserver) ObserveLogout()             {}
func (nopObserver) ObserveSweep(int64)         {}

// RequestIdentity is the result of validating a request's session token.
// The zero value is the anonymous identity.
type RequestIdentity struct {
	User    *User
	Session *Session
	// Cookie re-issues the client token with the renewed expiry.
	Cookie CookieDirective
}

// IsAnonymous reports whether no user was resolved.
func (r RequestIdentity) IsAnonymous() bool {
	return r.User == nil
}

// Service is the authentication gate: registration, login, per-request
// session validation with sliding renewal, and logout.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	issuer   *SessionIssuer
	cookie   CookieConfig
	logger   *slog.Logger
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithCookieConfig sets the client token name and path.
func WithCookieConfig(c CookieConfig) Option {
	return func(s *Service) { s.cookie = c }
}

// NewService creates a Service. All four collaborators are required.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher, issuer *SessionIssuer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("session issuer is required")
	}

	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		issuer:   issuer,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	s.cookie = s.cookie.withDefaults()
	return s, nil
}

// CookieName returns the name of the client token.
func (s *Service) CookieName() string {
	return s.cookie.Name
}

// dummyDigest and dummySalt stand in for a missing user so that a login
// for an unknown username still pays for one key derivation.
//
//nolint:gosec // G101: not a credential, never matches any password.
const (
	dummyDigest = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	dummySalt   = "AAAAAAAAAAAAAAAAAAAAAA=="
)

// Register creates an account. Username and email uniqueness are checked
// before the password is hashed; the store's constraint is authoritative
// for registrations that race.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(s.issuer.Now()); err != nil {
		s.observer.ObserveRegistration(ResultInvalid)
		return nil, err
	}

	taken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		s.observer.ObserveRegistration(ResultError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username").
			Wrap(err)
	}
	if taken {
		s.observer.ObserveRegistration(ResultConflict)
		return nil, errUsernameTaken()
	}

	taken, err = s.users.EmailExists(ctx, req.Email)
	if err != nil {
		s.observer.ObserveRegistration(ResultError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	if taken {
		s.observer.ObserveRegistration(ResultConflict)
		return nil, errEmailTaken()
	}

	digest, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.observer.ObserveRegistration(ResultError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		DateOfBirth:  req.DateOfBirth,
		PasswordHash: digest,
		PasswordSalt: salt,
		CreatedAt:    s.issuer.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrUsernameConflict):
			s.observer.ObserveRegistration(ResultConflict)
			return nil, errUsernameTaken()
		case errors.Is(err, ErrEmailConflict):
			s.observer.ObserveRegistration(ResultConflict)
			return nil, errEmailTaken()
		}
		s.observer.ObserveRegistration(ResultError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.observer.ObserveRegistration(ResultSuccess)
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and opens a session. Unknown usernames and
// wrong passwords fail identically with AUTH_INVALID_CREDENTIALS.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, CookieDirective, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.observer.ObserveLogin(ResultError)
		return nil, CookieDirective{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}

	if user == nil {
		_ = s.hasher.Verify(password, dummyDigest, dummySalt)
		s.observer.ObserveLogin(ResultInvalid)
		return nil, CookieDirective{}, errInvalidCredentials()
	}
	if !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		s.observer.ObserveLogin(ResultInvalid)
		return nil, CookieDirective{}, errInvalidCredentials()
	}

	id, err := s.issuer.NewSessionID()
	if err != nil {
		s.observer.ObserveLogin(ResultError)
		return nil, CookieDirective{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session id").
			Wrap(err)
	}

	now := s.issuer.Now()
	session := &Session{
		ID:             id,
		UserID:         user.ID,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.issuer.Duration()),
		IsActive:       true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.observer.ObserveLogin(ResultError)
		return nil, CookieDirective{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "persist session").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.observer.ObserveLogin(ResultSuccess)
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"session", shortID(session.ID),
		"expires_at", session.ExpiresAt,
	)
	return session, s.cookie.set(session.ID, session.ExpiresAt), nil
}

// ValidateRequest resolves the user behind a session token and slides the
// session's expiry forward. Every session problem yields the anonymous
// identity; only storage failures are returned as errors.
func (s *Service) ValidateRequest(ctx context.Context, token string) (RequestIdentity, error) {
	if token == "" {
		return s.anonymous(ctx, ResultNoToken, token), nil
	}

	session, err := s.sessions.GetByID(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return s.anonymous(ctx, ResultNotFound, token), nil
	}
	if err != nil {
		s.observer.ObserveValidation(ResultError)
		return RequestIdentity{}, oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "get session").
			Wrap(err)
	}

	if !session.IsActive {
		return s.anonymous(ctx, ResultInactive, token), nil
	}

	if s.issuer.IsExpired(session.ExpiresAt) {
		if err := s.sessions.Invalidate(ctx, session.ID); err != nil {
			s.observer.ObserveValidation(ResultError)
			return RequestIdentity{}, oops.Code("AUTH_VALIDATE_FAILED").
				With("operation", "invalidate expired session").
				Wrap(err)
		}
		return s.anonymous(ctx, ResultExpired, token), nil
	}

	// The owner is resolved before the session is renewed so a session
	// whose user is gone is closed rather than extended.
	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, ErrNotFound) {
		if err := s.sessions.Invalidate(ctx, session.ID); err != nil {
			s.observer.ObserveValidation(ResultError)
			return RequestIdentity{}, oops.Code("AUTH_VALIDATE_FAILED").
				With("operation", "invalidate orphaned session").
				Wrap(err)
		}
		return s.anonymous(ctx, ResultOrphaned, token), nil
	}
	if err != nil {
		s.observer.ObserveValidation(ResultError)
		return RequestIdentity{}, oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "get session owner").
			With("user_id", session.UserID).
			Wrap(err)
	}

	now := s.issuer.Now()
	expiresAt := now.Add(s.issuer.Duration())
	if err := s.sessions.UpdateActivity(ctx, session.ID, now, expiresAt); err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.anonymous(ctx, ResultNotFound, token), nil
		}
		s.observer.ObserveValidation(ResultError)
		return RequestIdentity{}, oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "refresh session").
			Wrap(err)
	}

	session.LastActivityAt = now
	session.ExpiresAt = expiresAt

	s.observer.ObserveValidation(ResultRefreshed)
	return RequestIdentity{
		User:    user,
		Session: session,
		Cookie:  s.cookie.set(session.ID, expiresAt),
	}, nil
}

// Logout invalidates the session behind token and returns a directive
// clearing the client token. Without a token it does nothing.
func (s *Service) Logout(ctx context.Context, token string) (CookieDirective, error) {
	if token == "" {
		return CookieDirective{}, nil
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return CookieDirective{}, oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "invalidate session").
			Wrap(err)
	}

	s.observer.ObserveLogout()
	s.logger.InfoContext(ctx, "session logged out", "session", shortID(token))
	return s.cookie.clear(), nil
}

// Cleanup deletes expired and inactive sessions.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.issuer.Now())
	if err != nil {
		return 0, oops.Code("AUTH_CLEANUP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	s.observer.ObserveSweep(removed)
	return removed, nil
}

func (s *Service) anonymous(ctx context.Context, reason, token string) RequestIdentity {
	s.observer.ObserveValidation(reason)
	if token != "" {
		s.logger.DebugContext(ctx, "request resolved anonymous", "reason", reason, "session", shortID(token))
	}
	return RequestIdentity{}
}

func errInvalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
}

func errUsernameTaken() error {
	return oops.Code("AUTH_USERNAME_TAKEN").
		With("field", "username").
		Wrap(FieldErrors{"username": "this username is already taken"})
}

func errEmailTaken() error {
	return oops.Code("AUTH_EMAIL_TAKEN").
		With("field", "email").
		Wrap(FieldErrors{"email": "this email is already registered"})
}

// shortID returns a log-safe prefix of a session id.
func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "..."
}
