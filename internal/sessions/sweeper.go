package sessions

import (
	"context"
	"time"

	"tat-backend/internal/shared/metrics"
	"tat-backend/internal/shared/telemetry"
)

// Sweeper periodically marks inactive sessions abandoned. The underlying
// repo update is conditional, so running several sweepers is safe.
type Sweeper struct {
	Repo     Repo
	Timeout  time.Duration
	Interval time.Duration
}

// Run sweeps on every tick until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				telemetry.Error("sweep.failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// SweepOnce abandons every session whose last activity is older than the
// configured timeout and returns how many were swept.
func (w *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	swept, err := w.Repo.SweepAbandoned(ctx, now.Add(-w.Timeout), now)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		for i := 0; i < swept; i++ {
			metrics.IncSessionAbandoned()
		}
		telemetry.Info("sweep.complete", map[string]any{
			"swept":           swept,
			"timeout_seconds": int(w.Timeout.Seconds()),
		})
	}
	return swept, nil
}
