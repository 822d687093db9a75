// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package web is the HTTP boundary of Quill. It turns cookie directives
// from the authentication gate into real cookies and exposes the auth and
// article operations as JSON endpoints.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/internal/auth"
)

// Authenticator is the subset of auth.Service used by the handlers.
type Authenticator interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, username, password string) (*auth.Session, auth.CookieDirective, error)
	ValidateRequest(ctx context.Context, token string) (auth.RequestIdentity, error)
	Logout(ctx context.Context, token string) (auth.CookieDirective, error)
	CookieName() string
}

// ArticleService is the subset of articles.Service used by the handlers.
type ArticleService interface {
	List(ctx context.Context) ([]articles.Article, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]articles.Article, error)
	Get(ctx context.Context, id int64) (*articles.Article, error)
	Create(ctx context.Context, article articles.Article) (*articles.Article, error)
	AddComment(ctx context.Context, articleID int64, content string) (*articles.Comment, error)
	ListComments(ctx context.Context, articleID int64) ([]articles.Comment, error)
}

// HTTPObserver records per-request outcomes.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

type nopHTTPObserver struct{}

func (nopHTTPObserver) ObserveHTTP(string, string, int, time.Duration) {}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	CSRF           *CSRF
	Logger         *slog.Logger
	Observer       HTTPObserver
}

type handler struct {
	auth     Authenticator
	articles ArticleService
	csrf     *CSRF
	logger   *slog.Logger
}

// NewRouter builds the HTTP handler for the blog API.
func NewRouter(authn Authenticator, arts ArticleService, opts Options) (http.Handler, error) {
	if authn == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("authenticator is required")
	}
	if arts == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("article service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = nopHTTPObserver{}
	}

	h := &handler{
		auth:     authn,
		articles: arts,
		csrf:     opts.CSRF,
		logger:   opts.Logger,
	}

	r := chi.NewRouter()
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", CSRFHeader},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(requestLogger(opts.Logger, opts.Observer))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, oops.Code("ROUTE_NOT_FOUND").With("path", r.URL.Path).Errorf("no such route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, oops.Code("METHOD_NOT_ALLOWED").With("method", r.Method).Errorf("method not allowed"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/csrf", h.issueCSRF)
		r.Group(func(r chi.Router) {
			r.Use(h.csrf.Middleware(h.writeError))
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/logout", h.logout)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.identify)
			r.Use(h.requireUser)
			r.Get("/me", h.me)
		})
	})

	r.Route("/articles", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.identify)
			r.Get("/", h.listArticles)
			r.Get("/{id}", h.getArticle)
			r.Get("/{id}/comments", h.listComments)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.csrf.Middleware(h.writeError))
			r.Use(h.identify)
			r.Use(h.requireUser)
			r.Post("/", h.createArticle)
			r.Post("/{id}/comments", h.addComment)
		})
	})

	return r, nil
}
