// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/logging"
	"github.com/quillblog/quill/internal/observability"
)

// NewCleanupCmd creates the cleanup subcommand.
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and inactive sessions once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runCleanup(ctx, cmd, cfg, nil)
		},
	}
}

func runCleanup(ctx context.Context, cmd *cobra.Command, cfg config.Config, deps *ServeDeps) error {
	deps = deps.withDefaults()
	logger := logging.Setup("quill-cleanup", version, cfg.LogFormat, cmd.ErrOrStderr())

	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return oops.Code("CLEANUP_FAILED").With("operation", "open database").Wrap(err)
	}
	defer backend.Close()

	svc, err := newAuthService(cfg, backend, logger, observability.NewMetrics(prometheus.NewRegistry()))
	if err != nil {
		return oops.Code("CLEANUP_FAILED").With("operation", "build auth service").Wrap(err)
	}

	removed, err := svc.Cleanup(ctx)
	if err != nil {
		return oops.Code("CLEANUP_FAILED").Wrap(err)
	}
	cmd.Printf("Removed %d session(s)\n", removed)
	return nil
}
