package boxproc

import (
	"context"
	"syscall"
	"time"
)

// Stop tears the box down: cancel the health monitor, try a graceful
// exit() first, escalate to SIGTERM then SIGKILL if the child doesn't
// go away. Stop is idempotent; calling it on an already-dead box just
// releases its resources.
func (b *BoxProcess) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.monitorCancel != nil {
		b.monitorCancel()
		b.monitorCancel = nil
	}

	if !b.IsAlive() {
		b.mu.Unlock()
		b.teardown()
		return nil
	}

	_, _ = b.executeLocked(ctx, "exit()\n", 2*time.Second, false)
	stillAlive := b.IsAlive()
	cmd := b.cmd
	b.mu.Unlock()

	if !stillAlive {
		b.teardown()
		return nil
	}

	if cmd.Process != nil {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}
	if b.waitExit(5 * time.Second) {
		b.teardown()
		return nil
	}

	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	b.waitExit(2 * time.Second)
	b.teardown()
	return nil
}
