// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long: `Manage the schema of the configured database. Migrations are
embedded in the binary for both PostgreSQL and SQLite.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	cmd.AddCommand(newMigrateForceCmd())
	cmd.AddCommand(newMigrateStatusCmd())

	return cmd
}

// withMigrator loads config, opens a migrator and closes it after fn.
func withMigrator(cmd *cobra.Command, fn func(cfg config.Config, m Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := newStoreMigrator(cfg.Driver(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()
	return fn(cfg, m)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(cfg config.Config, m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err //nolint:wrapcheck // already coded
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				if err := m.Up(); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				cmd.Printf("Applied %d migration(s) to %s\n", len(pending), cfg.Driver())
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var (
		yes   bool
		steps int
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("--steps must be positive")
			}
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops data; pass --yes to confirm")
			}
			return withMigrator(cmd, func(_ config.Config, m Migrator) error {
				if steps > 0 {
					if err := m.Steps(-steps); err != nil {
						return err //nolint:wrapcheck // already coded
					}
					cmd.Printf("Rolled back %d migration(s)\n", steps)
					return nil
				}
				if err := m.Down(); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive rollback")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (0 = all)")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(cfg config.Config, m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err //nolint:wrapcheck // already coded
				}
				cmd.Println(formatVersion(cfg.Driver(), v, dirty))
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version without running any migration.
Use only to recover from a dirty state after fixing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(_ config.Config, m Migrator) error {
				if err := m.Force(v); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				cmd.Printf("Forced schema version to %d\n", v)
				return nil
			})
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(cfg config.Config, m Migrator) error {
				applied, err := m.AppliedMigrations()
				if err != nil {
					return err //nolint:wrapcheck // already coded
				}
				pending, err := m.PendingMigrations()
				if err != nil {
					return err //nolint:wrapcheck // already coded
				}
				for _, v := range applied {
					cmd.Printf("  applied  %s\n", migrationLabel(cfg.Driver(), v))
				}
				for _, v := range pending {
					cmd.Printf("  pending  %s\n", migrationLabel(cfg.Driver(), v))
				}
				return nil
			})
		},
	}
}

// migrateUp applies pending migrations for serve --migrate.
func migrateUp(cfg config.Config, factory func(store.Driver, string) (Migrator, error), logger *slog.Logger) error {
	m, err := factory(cfg.Driver(), cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	v, _, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	logger.Info("database migrated", "driver", cfg.Driver().String(), "version", v)
	return nil
}

// parseForceVersion reads a migration version argument. Parsing stops at
// the first non-digit, so "3abc" is 3.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer")
	}
	return v, nil
}

func formatVersion(driver store.Driver, v uint, dirty bool) string {
	if v == 0 {
		return fmt.Sprintf("%s: no migrations applied", driver)
	}
	out := fmt.Sprintf("%s: version %s", driver, migrationLabel(driver, v))
	if dirty {
		out += " (dirty)"
	}
	return out
}

func migrationLabel(driver store.Driver, v uint) string {
	name, err := store.MigrationName(driver, v)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", v)
	}
	return name
}
