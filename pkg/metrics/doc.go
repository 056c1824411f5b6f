/*
Package metrics provides Prometheus metrics collection and exposition for sandboxd.

It defines and registers every sandboxd metric using the Prometheus client
library, giving visibility into the box pool's size, exec latency and
failure rate, package-install activity, snapshot activity, and health-check
failures. Metrics are exposed over HTTP for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Categories               │          │
	│  │                                              │          │
	│  │  Pool: boxes by state, prewarm queue depth  │          │
	│  │  Exec: call count by outcome, duration      │          │
	│  │  Packages: install count, failures, duration│          │
	│  │  Snapshots: snapshot/restore count, outcome │          │
	│  │  Health: health check failures              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

sandboxd_boxes_total{state}:
  - Type: GaugeVec
  - Current number of boxes by state (starting/running/executing/stopping/stopped)

sandboxd_prewarm_queue_size:
  - Type: Gauge
  - Number of prewarmed boxes currently waiting to be claimed

sandboxd_box_exec_duration_seconds:
  - Type: Histogram
  - Duration of Execute calls against a box

sandboxd_box_exec_total{outcome}:
  - Type: CounterVec
  - Total Execute calls by outcome (ok/error/timeout)

sandboxd_box_exec_timeouts_total:
  - Type: Counter
  - Total Execute calls that hit ExecTimeout

sandboxd_boxes_started_total / sandboxd_boxes_destroyed_total:
  - Type: Counter
  - Lifetime box creation and destruction counts

sandboxd_package_installs_total / sandboxd_package_installs_failed_total:
  - Type: Counter
  - install_packages call counts and failures

sandboxd_package_install_duration_seconds:
  - Type: Histogram
  - Duration of install_packages calls

sandboxd_snapshots_total{operation,outcome}:
  - Type: CounterVec
  - snapshot/restore calls by operation and outcome

sandboxd_health_check_failures_total:
  - Type: Counter
  - Box health checks that reported unhealthy

# Usage

	import "github.com/boxrun/sandboxd/pkg/metrics"

	metrics.BoxesTotal.WithLabelValues("running").Set(5)
	metrics.BoxesStartedTotal.Inc()
	metrics.BoxExecTotal.WithLabelValues("ok").Inc()

	timer := metrics.NewTimer()
	// ... run Execute ...
	timer.ObserveDuration(metrics.BoxExecDuration)

	http.Handle("/metrics", metrics.Handler())

# Integration Points

This package integrates with:

  - pkg/boxmgr: reports boxes started/destroyed, install and snapshot outcomes,
    and serves as the Collector's Source for pool size and prewarm queue depth
  - pkg/boxproc: reports exec outcomes and duration, and health check failures
  - cmd/sandboxd: mounts Handler() on the --metrics-addr HTTP server

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate registration

Label Discipline:
  - Labels are state/outcome/operation enums, never box IDs or timestamps

Timer Pattern:
  - NewTimer() at operation start, ObserveDuration at completion

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
