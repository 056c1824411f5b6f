package boxproc

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/metrics"
	"github.com/boxrun/sandboxd/pkg/types"
)

var addressSanitizer = strings.NewReplacer(
	"localhost", "blocked_address",
	"127.0.0.1", "blocked_address",
	"0.0.0.0", "blocked_address",
)

// SanitizeAddresses replaces common loopback/any-address literals with a
// placeholder. This is a best-effort discouragement, not a security
// boundary: it operates on the source text, not on actual connect(2)
// calls the code might make.
func SanitizeAddresses(code string) string {
	return addressSanitizer.Replace(code)
}

func newMarker() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("__COMPLETE_%s__", hex.EncodeToString(buf))
}

// Execute submits code to the box and waits for it to run to
// completion, returning everything the interpreter wrote to stdout and
// stderr before the completion marker.
func (b *BoxProcess) Execute(ctx context.Context, code string, timeout time.Duration) (types.ExecResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.IsAlive() {
		return types.ExecResult{}, types.NewError(types.ErrNotRunning, "box "+b.ID+" is not running", nil)
	}

	timer := metrics.NewTimer()
	b.state = types.BoxStateExecuting

	res, err := b.executeLocked(ctx, code, timeout, true)

	if b.IsAlive() {
		b.state = types.BoxStateRunning
	}

	outcome := "ok"
	switch {
	case types.KindOf(err) == types.ErrTimeout:
		outcome = "timeout"
		metrics.BoxExecTimeoutsTotal.Inc()
		if b.events != nil {
			b.events.Publish(&events.Event{Type: events.EventBoxExecTimeout, BoxID: b.ID})
		}
	case err != nil:
		outcome = "error"
	}
	metrics.BoxExecTotal.WithLabelValues(outcome).Inc()
	timer.ObserveDuration(metrics.BoxExecDuration)

	return res, err
}

// executeLocked assumes mu is already held by the caller (Execute, or
// Stop's best-effort exit() call).
func (b *BoxProcess) executeLocked(ctx context.Context, code string, timeout time.Duration, sanitize bool) (types.ExecResult, error) {
	marker := newMarker()
	payload := code
	if sanitize {
		payload = SanitizeAddresses(payload)
	}
	payload += "\nprint(\"" + marker + "\")\n"

	b.drainResidual(time.Second)

	if _, err := io.WriteString(b.stdin, payload); err != nil {
		return types.ExecResult{}, types.NewError(types.ErrPipeBroken, "write to box "+b.ID+" stdin", err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	markerBytes := []byte(marker)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-b.stdoutCh:
			if !ok {
				return types.ExecResult{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()},
					types.NewError(types.ErrPipeBroken, "box "+b.ID+" exited during exec", nil)
			}
			stdoutBuf.Write(chunk)
			if idx := bytes.Index(stdoutBuf.Bytes(), markerBytes); idx >= 0 {
				return types.ExecResult{
					Stdout: string(stdoutBuf.Bytes()[:idx]),
					Stderr: stderrBuf.String(),
				}, nil
			}

		case chunk, ok := <-b.stderrCh:
			if !ok {
				return types.ExecResult{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()},
					types.NewError(types.ErrPipeBroken, "box "+b.ID+" exited during exec", nil)
			}
			stderrBuf.Write(chunk)

		case <-b.deadCh:
			return types.ExecResult{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()},
				types.NewError(types.ErrPipeBroken, "box "+b.ID+" died during exec", nil)

		case <-timer.C:
			return types.ExecResult{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()},
				types.NewError(types.ErrTimeout, "box "+b.ID+" did not complete within timeout", nil)

		case <-ctx.Done():
			return types.ExecResult{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()},
				types.NewError(types.ErrTimeout, "exec canceled", ctx.Err())
		}
	}
}

// drainResidual discards whatever is sitting in the stdout/stderr
// channels before a new Execute call writes its payload, so output left
// over from a previous timed-out call doesn't bleed into the next
// result.
func (b *BoxProcess) drainResidual(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case _, ok := <-b.stdoutCh:
			if !ok {
				return
			}
		case _, ok := <-b.stderrCh:
			if !ok {
				return
			}
		case <-timer.C:
			return
		}
	}
}
