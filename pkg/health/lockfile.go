package health

import (
	"context"
	"os"
	"syscall"
	"time"
)

// LockFileChecker probes box liveness by attempting a non-blocking
// exclusive flock on the box's lock file. The box's startup hook holds
// that lock for the lifetime of the interpreter process (see
// pkg/startup), so acquiring it here means the interpreter has exited.
// This checker never talks to the interpreter itself, unlike an
// exec-based probe would.
//
// This replaces the approach of re-executing a throwaway statement
// inside the interpreter to see if it responds: that approach shares the
// interpreter's single execution stream with real user code, so a
// probe can be delayed behind (or interleaved with) whatever the box is
// currently running. A lock file never contends with user code.
type LockFileChecker struct {
	Path string
}

// NewLockFileChecker builds a checker for the lock file at path.
func NewLockFileChecker(path string) *LockFileChecker {
	return &LockFileChecker{Path: path}
}

// Check reports Healthy=true when the lock file is still held by the
// box (LOCK_NB fails with EAGAIN/EWOULDBLOCK), and Healthy=false when
// the lock can be acquired (nobody holds it, the interpreter exited) or
// the file is missing entirely.
func (c *LockFileChecker) Check(ctx context.Context) Result {
	start := time.Now()

	f, err := os.OpenFile(c.Path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   "lock file unavailable: " + err.Error(),
			CheckedAt: time.Now(),
			Duration:  time.Since(start),
		}
	}
	defer f.Close()

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		// Could not acquire: something else (the box) holds it.
		return Result{
			Healthy:   true,
			Message:   "lock held by box",
			CheckedAt: time.Now(),
			Duration:  time.Since(start),
		}
	}

	// We acquired the lock, meaning nobody held it. Release it
	// immediately; this checker must not itself hold the box's lock.
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return Result{
		Healthy:   false,
		Message:   "lock file not held: box process has exited",
		CheckedAt: time.Now(),
		Duration:  time.Since(start),
	}
}

// Type reports the checker's CheckType.
func (c *LockFileChecker) Type() CheckType {
	return CheckTypeLockFile
}
