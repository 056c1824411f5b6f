package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BoxesTotal tracks the current number of boxes by state.
	BoxesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sandboxd_boxes_total",
			Help: "Total number of boxes by state",
		},
		[]string{"state"},
	)

	PrewarmQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sandboxd_prewarm_queue_size",
			Help: "Number of prewarmed boxes currently waiting in the queue",
		},
	)

	BoxExecDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sandboxd_box_exec_duration_seconds",
			Help:    "Duration of Execute calls against a box",
			Buckets: prometheus.DefBuckets,
		},
	)

	BoxExecTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandboxd_box_exec_total",
			Help: "Total number of Execute calls by outcome",
		},
		[]string{"outcome"},
	)

	BoxExecTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_box_exec_timeouts_total",
			Help: "Total number of Execute calls that timed out",
		},
	)

	BoxesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_boxes_started_total",
			Help: "Total number of boxes started (prewarmed or on-demand)",
		},
	)

	BoxesDestroyedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_boxes_destroyed_total",
			Help: "Total number of boxes destroyed",
		},
	)

	InstallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_package_installs_total",
			Help: "Total number of install_packages calls",
		},
	)

	InstallsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_package_installs_failed_total",
			Help: "Total number of install_packages calls that failed",
		},
	)

	InstallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sandboxd_package_install_duration_seconds",
			Help:    "Duration of install_packages calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandboxd_snapshots_total",
			Help: "Total number of snapshot/restore calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	HealthCheckFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandboxd_health_check_failures_total",
			Help: "Total number of box health checks that reported unhealthy",
		},
	)
)

func init() {
	prometheus.MustRegister(BoxesTotal)
	prometheus.MustRegister(PrewarmQueueSize)
	prometheus.MustRegister(BoxExecDuration)
	prometheus.MustRegister(BoxExecTotal)
	prometheus.MustRegister(BoxExecTimeoutsTotal)
	prometheus.MustRegister(BoxesStartedTotal)
	prometheus.MustRegister(BoxesDestroyedTotal)
	prometheus.MustRegister(InstallsTotal)
	prometheus.MustRegister(InstallsFailedTotal)
	prometheus.MustRegister(InstallDuration)
	prometheus.MustRegister(SnapshotsTotal)
	prometheus.MustRegister(HealthCheckFailuresTotal)
}

// Handler returns the Prometheus HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an elapsed duration and reports it into a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time into histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time into a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
