// Package boxproc drives a single interpreter child process as a
// stateful REPL reachable over pipes: spawn, Execute, Stop, and a
// background lock-file health monitor. BoxManager (pkg/boxmgr) owns the
// registry of BoxProcess values; this package knows nothing about
// prewarming, snapshots, or package installation.
package boxproc
