// Package boxmgr allocates and tracks boxes: filesystem setup and
// teardown, the prewarm pool, package installs, and checkpoint/restore
// bookkeeping. It owns the registry of running pkg/boxproc.BoxProcess
// values; pkg/boxproc knows nothing about any of this.
package boxmgr
