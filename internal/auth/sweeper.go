// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Cleaner removes expired and inactive sessions.
type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Sweeper runs Cleanup on a fixed interval.
type Sweeper struct {
	cleaner  Cleaner
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(cleaner Cleaner, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if cleaner == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("cleaner is required")
	}
	if interval <= 0 {
		return nil, oops.Code("AUTH_INVALID_CONFIG").
			With("interval", interval.String()).
			Errorf("sweep interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{cleaner: cleaner, interval: interval, logger: logger}, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A failed sweep is logged and the loop continues.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	removed, err := w.cleaner.Cleanup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.ErrorContext(ctx, "session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		w.logger.InfoContext(ctx, "swept sessions", "removed", removed)
	}
}
