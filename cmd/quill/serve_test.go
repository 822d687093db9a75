// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/observability"
	"github.com/quillblog/quill/internal/store"
	"github.com/quillblog/quill/pkg/errutil"
)

type fakeObservability struct {
	mu      sync.Mutex
	ready   observability.ReadinessChecker
	metrics *observability.Metrics
	errCh   chan error
	stopped bool
}

func newFakeObservability() *fakeObservability {
	return &fakeObservability{
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		errCh:   make(chan error, 1),
	}
}

func (f *fakeObservability) Start() (<-chan error, error) { return f.errCh, nil }
func (f *fakeObservability) Addr() string                 { return "fake:0" }
func (f *fakeObservability) Metrics() *observability.Metrics {
	return f.metrics
}

func (f *fakeObservability) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeObservability) isReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready != nil && f.ready()
}

func (f *fakeObservability) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LogFormat = "text"
	cfg.Database.Driver = string(store.DriverSQLite)
	cfg.Database.URL = filepath.Join(t.TempDir(), "quill.db")
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Metrics.Addr = ""
	require.NoError(t, cfg.Validate())
	return cfg
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServe(t *testing.T, cfg config.Config, deps *ServeDeps) (string, context.CancelFunc, <-chan error, *syncBuffer) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deps.ListenerFactory = func(string, string) (net.Listener, error) { return listener, nil }

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cmd, cfg, true, deps) }()

	base := "http://" + listener.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/articles")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return base, cancel, done, out
}

func TestServe_ServesAndShutsDown(t *testing.T) {
	cfg := sqliteConfig(t)
	base, cancel, done, out := startServe(t, cfg, &ServeDeps{})

	resp, err := http.Get(base + "/auth/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
	assert.Contains(t, out.String(), "Quill listening on")
}

func TestServe_ReadinessFollowsLifecycle(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Metrics.Addr = "fake:0"
	obs := newFakeObservability()
	deps := &ServeDeps{
		ObservabilityServerFactory: func(_ string, ready observability.ReadinessChecker) ObservabilityServer {
			obs.mu.Lock()
			defer obs.mu.Unlock()
			obs.ready = ready
			return obs
		},
	}

	_, cancel, done, _ := startServe(t, cfg, deps)
	assert.True(t, obs.isReady())

	cancel()
	require.NoError(t, <-done)
	assert.False(t, obs.isReady())
	assert.True(t, obs.wasStopped())
}

func TestServe_ObservabilityFailureTriggersShutdown(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Metrics.Addr = "fake:0"
	obs := newFakeObservability()
	deps := &ServeDeps{
		ObservabilityServerFactory: func(_ string, ready observability.ReadinessChecker) ObservabilityServer {
			obs.mu.Lock()
			defer obs.mu.Unlock()
			obs.ready = ready
			return obs
		},
	}

	_, cancel, done, _ := startServe(t, cfg, deps)
	defer cancel()

	obs.errCh <- errors.New("metrics listener died")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not react to observability failure")
	}
}

func TestServe_BackendFailure(t *testing.T) {
	cfg := sqliteConfig(t)
	deps := &ServeDeps{
		BackendOpener: func(context.Context, config.Config) (*Backend, error) {
			return nil, errors.New("disk on fire")
		},
	}
	cmd := &cobra.Command{}
	cmd.SetErr(io.Discard)

	err := runServeWithDeps(context.Background(), cmd, cfg, false, deps)
	errutil.AssertErrorCode(t, err, "SERVE_FAILED")
}

func TestServe_MigrationFailure(t *testing.T) {
	cfg := sqliteConfig(t)
	deps := &ServeDeps{
		MigratorFactory: func(store.Driver, string) (Migrator, error) {
			return nil, errors.New("no migrations for you")
		},
	}
	cmd := &cobra.Command{}
	cmd.SetErr(io.Discard)

	err := runServeWithDeps(context.Background(), cmd, cfg, true, deps)
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
}

func TestOpenBackend_InMemoryArticles(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Articles.InMemory = true

	b, err := openBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &articles.MemoryRepository{}, b.Articles)
}
