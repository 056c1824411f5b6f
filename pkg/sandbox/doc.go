// Package sandbox provides SandboxService, a thin façade over
// pkg/boxmgr.BoxManager: create_session, exec_code, install_packages,
// snapshot, restore, and destroy, plus a scoped-acquisition helper that
// guarantees destroy runs on every exit path. By default a session ID
// is just the underlying box ID; WithSessionIndirection swaps in a
// session_id -> box_id map for callers that want that extra layer.
package sandbox
