package boxproc

import (
	"context"
	"time"

	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/health"
	"github.com/boxrun/sandboxd/pkg/metrics"
)

const monitorWarmup = 5 * time.Second

// runMonitor probes the box's lock file on a fixed interval after an
// initial warmup, and declares the box dead on the first failed probe.
// The probe loop never takes b.mu. On death it calls teardown, which
// sets the atomic dead flag and then locks b.mu to close stdin and mark
// the box stopped, so it waits for any Execute or Stop holding b.mu at
// that moment. This is safe to race against a concurrent Stop because
// teardown runs at most once.
func (b *BoxProcess) runMonitor(ctx context.Context) {
	select {
	case <-time.After(monitorWarmup):
	case <-ctx.Done():
		return
	}

	interval := b.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	checker := health.NewLockFileChecker(b.Paths.LockPath())
	status := health.NewStatus()
	cfg := health.Config{Interval: interval, Retries: 1}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			result := checker.Check(ctx)
			status.Update(result, cfg)

			if !status.Healthy {
				metrics.HealthCheckFailuresTotal.Inc()
				b.logger.Warn().Str("box_id", b.ID).Str("reason", result.Message).Msg("box health check failed")
				if b.events != nil {
					b.events.Publish(&events.Event{
						Type:    events.EventBoxHealthFailed,
						BoxID:   b.ID,
						Message: result.Message,
					})
				}
				b.teardown()
				return
			}
		}
	}
}
