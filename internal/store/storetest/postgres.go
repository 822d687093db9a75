// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package storetest runs disposable PostgreSQL databases for integration
// tests.
package storetest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quillblog/quill/internal/store"
)

const image = "postgres:16-alpine"

// Postgres is a running container. DSN is set once Start returns.
type Postgres struct {
	DSN       string
	container *postgres.PostgresContainer
}

// Start launches an empty database.
func Start(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("quill_test"),
		postgres.WithUsername("quill"),
		postgres.WithPassword("quill"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, oops.Code("STORETEST_START_FAILED").Wrap(err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, oops.Code("STORETEST_START_FAILED").With("operation", "connection string").Wrap(err)
	}
	return &Postgres{DSN: dsn, container: container}, nil
}

// StartMigrated launches a database with every migration applied and
// returns a pool connected to it.
func StartMigrated(ctx context.Context) (*Postgres, *pgxpool.Pool, error) {
	pg, err := Start(ctx)
	if err != nil {
		return nil, nil, err
	}

	m, err := store.NewMigrator(store.DriverPostgres, pg.DSN)
	if err != nil {
		pg.Terminate(ctx)
		return nil, nil, err //nolint:wrapcheck // already coded
	}
	upErr := m.Up()
	_ = m.Close()
	if upErr != nil {
		pg.Terminate(ctx)
		return nil, nil, upErr //nolint:wrapcheck // already coded
	}

	pool, err := store.OpenPostgres(ctx, pg.DSN, 10*time.Second)
	if err != nil {
		pg.Terminate(ctx)
		return nil, nil, err //nolint:wrapcheck // already coded
	}
	return pg, pool, nil
}

// Terminate removes the container.
func (p *Postgres) Terminate(ctx context.Context) {
	if p != nil && p.container != nil {
		_ = p.container.Terminate(ctx)
	}
}
