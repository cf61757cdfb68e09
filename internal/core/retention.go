package core

// retention.go prunes old preview history in the background.
//
// The pruner runs once at startup and then every interval, deleting runs
// older than the retention window. Failures are logged and retried on the
// next tick; they never stop the service.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the history pruner.
type RetentionConfig struct {
	RetentionDays int           // Days to keep preview runs
	Interval      time.Duration // How often to prune
}

// StartHistoryPruner periodically deletes expired preview runs until ctx is
// cancelled. It returns immediately when history is disabled.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg RetentionConfig) {
	if s.history == nil || cfg.RetentionDays <= 0 || cfg.Interval <= 0 {
		return
	}

	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval,
	)

	s.pruneHistory(ctx, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, cfg.RetentionDays)
		}
	}
}

// pruneHistory performs one prune cycle.
func (s *Service) pruneHistory(ctx context.Context, retentionDays int) {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -retentionDays)

	n, err := s.history.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("pruned preview history",
		"runs_deleted", n,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
