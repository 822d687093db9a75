// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/articles"
	articlespg "github.com/quillblog/quill/internal/articles/postgres"
	articlessqlite "github.com/quillblog/quill/internal/articles/sqlite"
	"github.com/quillblog/quill/internal/auth"
	authpg "github.com/quillblog/quill/internal/auth/postgres"
	authsqlite "github.com/quillblog/quill/internal/auth/sqlite"
	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/store"
)

// Backend bundles the repositories of one open database.
type Backend struct {
	Users    auth.UserRepository
	Sessions auth.SessionRepository
	Articles articles.Repository
	close    func()
}

// Close releases the underlying connection pool.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// openBackend opens the configured database and builds its repositories.
// Articles live in memory when cfg.Articles.InMemory is set; accounts and
// sessions always use the database.
func openBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	var b *Backend
	switch cfg.Driver() {
	case store.DriverSQLite:
		db, err := store.OpenSQLite(ctx, cfg.Database.URL)
		if err != nil {
			return nil, oops.With("driver", "sqlite").Wrap(err)
		}
		b = &Backend{
			Users:    authsqlite.NewUserRepository(db),
			Sessions: authsqlite.NewSessionRepository(db),
			Articles: articlessqlite.NewRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					slog.Warn("error closing sqlite database", "error", err)
				}
			},
		}
	default:
		pool, err := store.OpenPostgres(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, oops.With("driver", "postgres").Wrap(err)
		}
		b = &Backend{
			Users:    authpg.NewUserRepository(pool),
			Sessions: authpg.NewSessionRepository(pool),
			Articles: articlespg.NewRepository(pool),
			close:    pool.Close,
		}
	}

	if cfg.Articles.InMemory {
		b.Articles = articles.NewMemoryRepository()
	}
	return b, nil
}

// newAuthService builds the authentication gate from configuration.
func newAuthService(cfg config.Config, b *Backend, logger *slog.Logger, observer auth.Observer) (*auth.Service, error) {
	issuer := auth.NewSessionIssuer(cfg.Auth.SessionDuration, auth.SystemClock{})
	svc, err := auth.NewService(b.Users, b.Sessions, auth.NewPBKDF2Hasher(), issuer,
		auth.WithLogger(logger),
		auth.WithObserver(observer),
		auth.WithCookieConfig(auth.CookieConfig{
			Name: cfg.Auth.CookieName,
			Path: cfg.Auth.CookiePath,
		}),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	return svc, nil
}
