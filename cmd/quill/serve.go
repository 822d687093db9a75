// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/logging"
	"github.com/quillblog/quill/internal/observability"
	"github.com/quillblog/quill/internal/web"
)

// shutdownTimeout bounds graceful shutdown of the HTTP and metrics servers.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog HTTP server",
		Long: `Start the HTTP API, the observability server and the background
session sweeper. Shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServeWithDeps(ctx, cmd, cfg, migrateFirst, nil)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, cfg config.Config, migrateFirst bool, deps *ServeDeps) error {
	deps = deps.withDefaults()

	logger := logging.Setup("quill", version, cfg.LogFormat, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Info("starting quill",
		"driver", cfg.Database.Driver,
		"addr", cfg.HTTP.Addr,
		"in_memory_articles", cfg.Articles.InMemory,
	)

	if migrateFirst {
		if err := migrateUp(cfg, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "open database").Wrap(err)
	}
	defer backend.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}
	defer func() {
		if obsServer == nil {
			return
		}
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if err := obsServer.Stop(stopCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}()

	authSvc, err := newAuthService(cfg, backend, logger, metrics)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build auth service").Wrap(err)
	}
	articleSvc, err := articles.NewService(backend.Articles, articles.WithLogger(logger))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build article service").Wrap(err)
	}

	router, err := web.NewRouter(authSvc, articleSvc, web.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		CSRF:           web.NewCSRF(cfg.HTTP.CSRFSecret, cfg.HTTP.CSRFTTL),
		Logger:         logger,
		Observer:       metrics,
	})
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build router").Wrap(err)
	}

	sweeper, err := auth.NewSweeper(authSvc, cfg.Auth.CleanupInterval, logger)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build sweeper").Wrap(err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	defer wg.Wait()
	defer cancel()

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	httpErrCh := make(chan error, 1)
	go func() {
		defer close(httpErrCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			httpErrCh <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ready.Store(true)
	cmd.Printf("Quill listening on %s\n", listener.Addr())
	logger.Info("quill ready", "addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-httpErrCh:
		if ok && err != nil {
			serveErr = oops.Code("SERVE_FAILED").With("operation", "serve http").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down http server", "error", err)
	}

	logger.Info("shutdown complete")
	return serveErr
}

// monitorServerErrors cancels ctx when a background server fails. It exits
// when the channel is closed or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
