// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package store

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 and sqlite3 database drivers for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrateIface is the subset of *migrate.Migrate used here.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded schema migrations of one driver.
type Migrator struct {
	m      migrateIface
	driver Driver
}

// NewMigrator creates a Migrator for the given driver. For Postgres the
// databaseURL is a connection string with a postgres://, postgresql:// or
// pgx5:// scheme; for SQLite it is the database file path.
func NewMigrator(driver Driver, databaseURL string) (*Migrator, error) {
	if _, err := ParseDriver(string(driver)); err != nil {
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "resolve driver").Wrap(err)
	}

	source, err := iofs.New(migrationsFS, migrationsDir(driver))
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(driver, databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // cleanup for embedded FS; init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "initialize migrator").
			With("driver", driver.String()).
			Wrap(err)
	}

	return &Migrator{m: m, driver: driver}, nil
}

func migrationsDir(driver Driver) string {
	return "migrations/" + string(driver)
}

// migrateURL rewrites a configured database URL into the scheme the
// golang-migrate driver for that backend registers.
func migrateURL(driver Driver, databaseURL string) string {
	switch driver {
	case DriverSQLite:
		path := strings.TrimPrefix(databaseURL, "file:")
		if rest, found := strings.CutPrefix(path, "sqlite3://"); found {
			path = rest
		}
		return "sqlite3://" + path
	default:
		if rest, found := strings.CutPrefix(databaseURL, "postgres://"); found {
			return "pgx5://" + rest
		}
		if rest, found := strings.CutPrefix(databaseURL, "postgresql://"); found {
			return "pgx5://" + rest
		}
		return databaseURL
	}
}

// Driver reports the backend this migrator targets.
func (m *Migrator) Driver() Driver { return m.driver }

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	return apply(m.m.Up(), oops.Code("MIGRATION_UP_FAILED"))
}

// Down rolls back every migration. This drops all tables and their data.
func (m *Migrator) Down() error {
	return apply(m.m.Down(), oops.Code("MIGRATION_DOWN_FAILED"))
}

// Steps migrates n versions: up when n is positive, down when negative.
func (m *Migrator) Steps(n int) error {
	return apply(m.m.Steps(n), oops.Code("MIGRATION_STEPS_FAILED").With("steps", n))
}

// apply treats ErrNoChange as success and wraps any other error.
func apply(err error, b oops.OopsErrorBuilder) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return b.Wrap(err)
}

// Version returns the current schema version and whether the last migration
// failed partway. A database with no migrations reports (0, false, nil).
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as current without running anything and clears
// the dirty flag.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the migration source and the database handle.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	var component string
	switch {
	case srcErr != nil && dbErr != nil:
		component = "both"
	case srcErr != nil:
		component = "source"
	case dbErr != nil:
		component = "database"
	default:
		return nil
	}
	return oops.Code("MIGRATION_CLOSE_FAILED").
		With("component", component).
		Wrap(errors.Join(srcErr, dbErr))
}

// migrationFile is one embedded up migration.
type migrationFile struct {
	version uint
	name    string
}

var (
	indexMu sync.Mutex
	index   = map[Driver][]migrationFile{}
)

// embeddedMigrations lists a driver's up migrations in version order. The
// embedded FS never changes, so the listing is read once per driver.
func embeddedMigrations(driver Driver) ([]migrationFile, error) {
	indexMu.Lock()
	defer indexMu.Unlock()

	if files, ok := index[driver]; ok {
		return files, nil
	}

	entries, err := migrationsFS.ReadDir(migrationsDir(driver))
	if err != nil {
		return nil, oops.Code("MIGRATION_READ_FAILED").
			With("operation", "read migrations dir").
			With("driver", driver.String()).
			Wrap(err)
	}

	var files []migrationFile
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(name, "%06d_", &version); err != nil {
			slog.Warn("skipping migration with unexpected file name",
				"driver", driver.String(),
				"filename", entry.Name(),
				"expected_format", "NNNNNN_name.up.sql")
			continue
		}
		files = append(files, migrationFile{version: version, name: name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })

	index[driver] = files
	return files, nil
}

// migrationVersions returns a fresh slice of a driver's embedded versions.
func migrationVersions(driver Driver) ([]uint, error) {
	files, err := embeddedMigrations(driver)
	if err != nil {
		return nil, err
	}
	versions := make([]uint, len(files))
	for i, f := range files {
		versions[i] = f.version
	}
	return versions, nil
}

// MigrationName returns the NNNNNN_name label of a driver's migration, for
// example "000001_auth". An unknown version yields ("", nil).
func MigrationName(driver Driver, version uint) (string, error) {
	files, err := embeddedMigrations(driver)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.version == version {
			return f.name, nil
		}
	}
	return "", nil
}

// PendingMigrations lists, in ascending order, the versions Up would apply.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.split("get pending migrations")
	return pending, err
}

// AppliedMigrations lists, in ascending order, the versions already applied.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.split("get applied migrations")
	return applied, err
}

// split partitions the embedded versions around the current schema version.
func (m *Migrator) split(operation string) (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, oops.With("operation", operation).Wrap(err)
	}
	versions, err := migrationVersions(m.driver)
	if err != nil {
		return nil, nil, oops.With("operation", operation).Wrap(err)
	}
	for _, v := range versions {
		if v <= current {
			applied = append(applied, v)
		} else {
			pending = append(pending, v)
		}
	}
	return applied, pending, nil
}
