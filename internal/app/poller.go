package app

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRefreshInterval = 15 * time.Second
	maxBackoff             = 2 * time.Minute
)

// Refresher reloads the results table. *widget.Controller implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
	Busy() bool
}

// StartRefresher launches a background goroutine that reloads the results
// table at a fixed cadence, so outputs produced by runs started elsewhere show
// up. Ticks are skipped while a run is in flight. Failures back off
// exponentially. It returns immediately.
func StartRefresher(ctx context.Context, target Refresher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if !target.Busy() {
				if err := target.Refresh(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					failures++
					logger.Warn("results refresh failed", "error", err, "failures", failures)
				} else {
					failures = 0
				}
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
