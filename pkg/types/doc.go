/*
Package types defines the core data structures shared across sandboxd.

It holds the domain model for a Box (a long-lived interpreter child
process), its resolved runtime configuration, and the records persisted
about checkpointed boxes. Everything else (BoxProcess, BoxManager,
SandboxService) builds on these types rather than defining their own.

# Core Types

	Box            - registry-facing record of a running/prewarmed sandbox
	BoxState       - starting, running, executing, stopping, stopped
	BoxConfig      - resolved runtime configuration for a BoxManager
	ResourceLimits - optional rlimits applied before a box's child process execs
	SnapshotRecord - persisted id/path bookkeeping for a checkpointed box
	ExecResult     - the (stdout, stderr) pair returned by a single Execute call

# Thread Safety

Box values are read-safe but write-unsafe: pkg/boxmgr's registry owns all
mutation and guards it with a mutex. BoxConfig is built once at startup
and never mutated afterward.

# See Also

  - pkg/boxproc for the process that owns a Box's lifecycle
  - pkg/boxmgr for the registry and prewarm pool
  - pkg/sandbox for the public service surface
*/
package types
