package core

// scheduler.go provides the optional periodic reload.
//
// Every tick issues one ordinary Load, so a reload replaces the snapshot
// wholesale exactly like the first load did. Failed reloads go through the
// usual classification and notification path; the scheduler itself only logs.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartReloadScheduler reloads the dataset every interval until ctx is
// cancelled. A non-positive interval returns immediately.
func (s *Store) StartReloadScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	slog.Info("reload scheduler started",
		"interval", interval.String(),
		"source", s.source.Name(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			s.runReload(ctx)
		}
	}
}

// runReload performs one scheduled load.
func (s *Store) runReload(ctx context.Context) {
	start := time.Now()
	err := s.Load(ctx)
	if err == nil {
		slog.Debug("scheduled reload completed", "duration_ms", time.Since(start).Milliseconds())
		return
	}

	// Transient failures log at warn level, everything else at error.
	level := slog.LevelError
	var c *Classification
	if errors.As(err, &c) && IsTransient(c) {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "scheduled reload failed",
		"error", err,
		"transient", level == slog.LevelWarn,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
