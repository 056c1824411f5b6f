package boxproc

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/boxrun/sandboxd/pkg/types"
)

// rlimitMu serializes spawns that carry resource limits: withResourceLimits
// temporarily lowers the calling process's own rlimits so the child
// inherits them across fork, then restores them once the child has
// been forked. Two concurrent spawns with different limits would
// otherwise stomp on each other's saved values.
var rlimitMu sync.Mutex

// resourceLimitSpecs maps each configured ResourceLimits field to the
// rlimit resource it controls.
func resourceLimitSpecs(rl types.ResourceLimits) map[int]uint64 {
	specs := make(map[int]uint64)
	if rl.MaxAddressSpaceBytes > 0 {
		specs[unix.RLIMIT_AS] = uint64(rl.MaxAddressSpaceBytes)
	}
	if rl.MaxOpenFiles > 0 {
		specs[unix.RLIMIT_NOFILE] = uint64(rl.MaxOpenFiles)
	}
	if rl.MaxCPUSeconds > 0 {
		specs[unix.RLIMIT_CPU] = uint64(rl.MaxCPUSeconds)
	}
	if rl.MaxCoreSizeBytes > 0 {
		specs[unix.RLIMIT_CORE] = uint64(rl.MaxCoreSizeBytes)
	}
	if rl.MaxFileSizeBytes > 0 {
		specs[unix.RLIMIT_FSIZE] = uint64(rl.MaxFileSizeBytes)
	}
	return specs
}

// withResourceLimits runs start (expected to fork+exec a child, i.e.
// cmd.Start) with this process's rlimits temporarily lowered to rl, so
// the child inherits the lowered limits across fork. This stands in for
// the pre-exec rlimit hook spec.md describes: Go's os/exec has no
// callback between fork and exec, so the limits are applied to the
// parent immediately before the call and restored immediately after.
// rlimitMu serializes that window only against other spawns that carry
// limits; the rest of the process, including spawns without limits,
// keeps running and is subject to the lowered limits while it lasts.
func withResourceLimits(rl types.ResourceLimits, start func() error) error {
	specs := resourceLimitSpecs(rl)
	if len(specs) == 0 {
		return start()
	}

	rlimitMu.Lock()
	defer rlimitMu.Unlock()

	saved := make(map[int]unix.Rlimit, len(specs))
	for resource, want := range specs {
		var cur unix.Rlimit
		if err := unix.Getrlimit(resource, &cur); err != nil {
			restoreRlimits(saved)
			return err
		}
		saved[resource] = cur

		next := unix.Rlimit{Cur: want, Max: cur.Max}
		if want > cur.Max {
			next.Max = want
		}
		if err := unix.Setrlimit(resource, &next); err != nil {
			restoreRlimits(saved)
			return err
		}
	}

	err := start()
	restoreRlimits(saved)
	return err
}

func restoreRlimits(saved map[int]unix.Rlimit) {
	for resource, lim := range saved {
		l := lim
		_ = unix.Setrlimit(resource, &l)
	}
}
