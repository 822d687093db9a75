// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/store"
	"github.com/quillblog/quill/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Quill CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quill",
		Short: "Quill - a small blog with session authentication",
		Long: `Quill serves a blog API with registration, login, sliding
sessions, articles and comments over PostgreSQL or SQLite.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCleanupCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration for cmd and validates it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfigUnchecked(cmd)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadConfigUnchecked checks the config file against the schema and merges
// it with flags, without validating the result. Without --config the user's
// XDG config file is used when present.
func loadConfigUnchecked(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		found, err := xdg.DefaultConfigFile()
		if err != nil {
			return config.Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
		path = found
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config.Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := config.ValidateFile(data); err != nil {
			return config.Config{}, oops.With("path", path).Wrap(err)
		}
	}

	cfg, err := config.Load(path, cmd.Flags(), os.Getenv)
	if err != nil {
		return config.Config{}, err //nolint:wrapcheck // already coded
	}

	if cfg.Driver() == store.DriverSQLite && cfg.Database.URL == "" {
		dbPath, err := xdg.DefaultDatabasePath()
		if err != nil {
			return config.Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
		cfg.Database.URL = dbPath
	}
	return cfg, nil
}
