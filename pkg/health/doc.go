/*
Package health provides health check mechanisms for monitoring box
liveness in sandboxd.

Unlike a container orchestrator's HTTP/TCP/exec probes against a service
endpoint, a box has exactly one liveness signal worth trusting: whether
its interpreter process still holds the advisory lock its startup hook
took on boot. LockFileChecker implements that single strategy against
the generic Checker interface below, so the Status/Config hysteresis
machinery here is reused rather than reinvented.

# Core Components

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

	type Result struct {
		Healthy   bool
		Message   string
		CheckedAt time.Time
		Duration  time.Duration
	}

	type Status struct {
		ConsecutiveFailures  int
		ConsecutiveSuccesses int
		LastCheck            time.Time
		LastResult           Result
		Healthy              bool
		StartedAt            time.Time
	}

# Usage

	checker := health.NewLockFileChecker(lockPath)
	config := health.Config{Interval: 10 * time.Second, Retries: 1}
	status := health.NewStatus()

	for {
		result := checker.Check(ctx)
		status.Update(result, config)
		if !status.Healthy {
			// box process has exited; BoxManager reaps it
			break
		}
		time.Sleep(config.Interval)
	}

A box's health monitor uses Retries: 1, so the first failed probe marks
the box unhealthy immediately, rather than waiting out a hysteresis
window the way a container health check would. There is no ambiguous
"slow to respond" state for a lock file: either it is held, or the
process that held it is gone.

# See Also

  - pkg/boxproc for the monitor loop that drives this checker
*/
package health
