// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CSRFHeader carries the anti-forgery token on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// CSRFCookie holds the id of the token issued to this client. A header token
// is only accepted alongside the cookie naming its id.
const CSRFCookie = "quill_csrf"

const (
	csrfIssuer  = "quill"
	csrfSubject = "csrf"
)

// DefaultCSRFTTL is used when NewCSRF is given a non-positive lifetime.
const DefaultCSRFTTL = time.Hour

// CSRFToken is a freshly issued token and the id its cookie must carry.
type CSRFToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// CSRF issues and verifies short-lived HS256 anti-forgery tokens. A nil
// *CSRF is valid and disables the check.
type CSRF struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCSRF returns a token authority, or nil when secret is empty.
func NewCSRF(secret string, ttl time.Duration) *CSRF {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCSRFTTL
	}
	return &CSRF{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether tokens are required.
func (c *CSRF) Enabled() bool {
	return c != nil
}

// Issue signs a new token with a random id.
func (c *CSRF) Issue() (CSRFToken, error) {
	if !c.Enabled() {
		return CSRFToken{}, oops.Code("CSRF_DISABLED").Errorf("anti-forgery tokens are disabled")
	}
	now := c.now()
	issued := CSRFToken{ID: ulid.Make().String(), ExpiresAt: now.Add(c.ttl)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        issued.ID,
		Issuer:    csrfIssuer,
		Subject:   csrfSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(issued.ExpiresAt),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return CSRFToken{}, oops.Code("CSRF_ISSUE_FAILED").Wrap(err)
	}
	issued.Token = signed
	return issued, nil
}

// Verify checks signature, issuer, subject and expiry, and that the token's
// id equals boundID, the value of the client's CSRFCookie.
func (c *CSRF) Verify(token, boundID string) error {
	if !c.Enabled() {
		return nil
	}
	if token == "" {
		return oops.Code("CSRF_INVALID").Errorf("missing anti-forgery token")
	}
	if boundID == "" {
		return oops.Code("CSRF_INVALID").Errorf("missing anti-forgery cookie")
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(csrfIssuer),
		jwt.WithSubject(csrfSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return oops.Code("CSRF_INVALID").Wrap(err)
	}
	if !parsed.Valid || claims.ID == "" {
		return oops.Code("CSRF_INVALID").Errorf("malformed anti-forgery token")
	}
	if subtle.ConstantTimeCompare([]byte(claims.ID), []byte(boundID)) != 1 {
		return oops.Code("CSRF_INVALID").Errorf("anti-forgery token not issued to this client")
	}
	return nil
}

// Cookie returns the HttpOnly cookie binding issued to the client.
func (c *CSRF) Cookie(issued CSRFToken) *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookie,
		Value:    issued.ID,
		Path:     "/",
		Expires:  issued.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// Middleware rejects requests whose CSRFHeader token is invalid or not
// bound to the request's CSRFCookie.
func (c *CSRF) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !c.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var boundID string
			if cookie, err := r.Cookie(CSRFCookie); err == nil {
				boundID = cookie.Value
			}
			if err := c.Verify(r.Header.Get(CSRFHeader), boundID); err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
