// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"net/url"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quillblog/quill/internal/config"
)

const redacted = "<redacted>"

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check a config file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return oops.Code("CONFIG_LOAD_FAILED").With("path", args[0]).Wrap(err)
			}
			if err := config.ValidateFile(data); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Printf("%s is valid\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigUnchecked(cmd)
			if err != nil {
				return err
			}
			out, err := redact(cfg).Marshal()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Print(string(out))
			return nil
		},
	})

	return cmd
}

// redact hides secrets before the config is printed.
func redact(cfg config.Config) config.Config {
	if cfg.HTTP.CSRFSecret != "" {
		cfg.HTTP.CSRFSecret = redacted
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			cfg.Database.URL = u.Redacted()
		}
	}
	return cfg
}
