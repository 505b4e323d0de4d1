package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
)

// SessionJanitor periodically evicts expired sessions and OTPs from stores
// that have no native expiry. Redis-backed stores expire keys on their own.
type SessionJanitor struct {
	sweepers []domain.Sweeper
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewSessionJanitor creates a new janitor over sweepers
func NewSessionJanitor(sweepers []domain.Sweeper, logger *slog.Logger, interval time.Duration) *SessionJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionJanitor{
		sweepers: sweepers,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (j *SessionJanitor) Start(ctx context.Context) {
	if len(j.sweepers) == 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("session janitor started", slog.Duration("interval", j.interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs every sweeper once and returns the number of evicted entries.
// A failing sweeper is logged and does not stop the others.
func (j *SessionJanitor) Sweep(ctx context.Context) int {
	now := j.now()
	total := 0
	for _, s := range j.sweepers {
		n, err := s.Sweep(ctx, now)
		if err != nil {
			j.logger.Error("sweep failed", slog.String("error", err.Error()))
			continue
		}
		total += n
	}

	metrics.ObserveSweep(total)
	if total > 0 {
		j.logger.Debug("expired entries evicted", slog.Int("count", total))
	}
	return total
}
