// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/internal/logging"
)

// RequestIDHeader carries the per-request ULID back to the client.
const RequestIDHeader = "X-Request-ID"

// requestLogger assigns a request id, logs the completed request and
// reports it to the observer under its route pattern.
func requestLogger(logger *slog.Logger, observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := ulid.Make().String()
			w.Header().Set(RequestIDHeader, id)

			ctx := logging.WithRequestID(r.Context(), id)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)

			observer.ObserveHTTP(r.Method, route, status, elapsed)
			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type identityKey struct{}

// IdentityFrom returns the identity resolved for the request. Requests
// that did not pass through the session middleware are anonymous.
func IdentityFrom(ctx context.Context) auth.RequestIdentity {
	id, _ := ctx.Value(identityKey{}).(auth.RequestIdentity)
	return id
}

func withIdentity(ctx context.Context, id auth.RequestIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identify validates the session cookie, renews it and stores the
// resolved identity on the request context.
func (h *handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.auth.ValidateRequest(r.Context(), h.sessionToken(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		applyCookie(w, identity.Cookie)
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

func (h *handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).IsAnonymous() {
			h.writeError(w, r, oops.Code("AUTH_REQUIRED").Errorf("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) sessionToken(r *http.Request) string {
	c, err := r.Cookie(h.auth.CookieName())
	if err != nil {
		return ""
	}
	return c.Value
}

// applyCookie writes a cookie directive as a Set-Cookie header.
func applyCookie(w http.ResponseWriter, d auth.CookieDirective) {
	c := &http.Cookie{
		Name:     d.Name,
		Path:     d.Path,
		HttpOnly: d.HTTPOnly,
		Secure:   d.Secure,
		SameSite: sameSite(d.SameSite),
	}
	switch d.Action {
	case auth.CookieSet:
		c.Value = d.Value
		c.Expires = d.ExpiresAt
	case auth.CookieClear:
		c.Expires = time.Unix(0, 0)
		c.MaxAge = -1
	default:
		return
	}
	http.SetCookie(w, c)
}

func sameSite(mode string) http.SameSite {
	switch mode {
	case "Strict":
		return http.SameSiteStrictMode
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
