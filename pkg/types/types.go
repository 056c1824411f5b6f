package types

import "time"

// BoxState represents the lifecycle state of a Box.
type BoxState string

const (
	BoxStateStarting  BoxState = "starting"
	BoxStateRunning   BoxState = "running"
	BoxStateExecuting BoxState = "executing"
	BoxStateStopping  BoxState = "stopping"
	BoxStateStopped   BoxState = "stopped"
)

// Box is the registry-facing record for a running or prewarmed sandbox
// process. It mirrors the subset of BoxProcess state that BoxManager and
// its callers need without reaching into the process internals.
type Box struct {
	ID        string
	State     BoxState
	CreatedAt time.Time
	RootDir   string
	WorkDir   string
	LibDir    string
	TmpDir    string
	LockPath  string
}

// BoxConfig is the resolved runtime configuration threaded through
// BoxManager and BoxProcess. It is built once by pkg/config and never
// mutated afterward.
type BoxConfig struct {
	SandboxRoot         string
	SandboxPrefix       string
	SharedLibsPath      string
	SnapshotDir         string
	SandboxUser         string
	SandboxGroup        string
	HealthCheckInterval time.Duration
	PrewarmCount        int
	ExecTimeout         time.Duration

	// ResourceLimits, when non-zero, are applied to each box's child
	// process before exec. A zero value for any field means "no limit
	// imposed here" (the deployment's outer cgroup/namespace, if any,
	// is the remaining control point).
	ResourceLimits ResourceLimits

	// Command overrides the default privilege-drop/checkpoint/interpreter
	// argv BoxProcess spawns. Empty means use the production chain
	// (gosu, dmtcp_launch, python3); tests and alternate deployments set
	// this directly. Resource limits are applied separately around
	// cmd.Start, not folded into this argv.
	Command []string
}

// ResourceLimits mirrors the commented-out preexec rlimit hook in the
// original implementation, exposed here as a real, optional extension
// point rather than dead code.
type ResourceLimits struct {
	MaxAddressSpaceBytes int64 // RLIMIT_AS
	MaxOpenFiles         int64 // RLIMIT_NOFILE
	MaxCPUSeconds        int64 // RLIMIT_CPU
	MaxCoreSizeBytes     int64 // RLIMIT_CORE
	MaxFileSizeBytes     int64 // RLIMIT_FSIZE
}

// SnapshotRecord is the persisted row backing a checkpointed Box.
type SnapshotRecord struct {
	ID        string
	BoxID     string
	CreatedAt time.Time
	Path      string
}

// ExecResult is the outcome of a single Execute call against a box.
type ExecResult struct {
	Stdout string
	Stderr string
}
