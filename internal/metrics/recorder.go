package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benmeehan/iot-link/internal/constants"
)

const namespace = "iot_link"

// Recorder exports provisioning measurements as prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	pollsPerAttempt prometheus.Histogram
	cleanupFailures *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "link",
				Name:      "attempts_total",
				Help:      "Total number of link attempts by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "link",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of link attempts in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9), // 500ms to ~2min
			},
			[]string{"outcome"},
		),
		pollsPerAttempt: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "link",
				Name:      "polls_per_attempt",
				Help:      "Number of device status polls made by a link attempt",
				Buckets:   prometheus.LinearBuckets(1, 10, 11),
			},
		),
		cleanupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "broadcast",
				Name:      "cleanup_failures_total",
				Help:      "Total number of failed broadcast cleanup steps",
			},
			[]string{"step"},
		),
	}

	r.registry.MustRegister(
		r.attemptsTotal,
		r.attemptDuration,
		r.pollsPerAttempt,
		r.cleanupFailures,
	)
	return r
}

// ObserveAttempt records a finished link attempt.
func (r *Recorder) ObserveAttempt(outcome constants.LinkOutcome, duration time.Duration) {
	r.attemptsTotal.WithLabelValues(string(outcome)).Inc()
	r.attemptDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

// ObservePolls records how many polls an attempt made.
func (r *Recorder) ObservePolls(polls int) {
	r.pollsPerAttempt.Observe(float64(polls))
}

// IncCleanupFailure counts a failed stop or release.
func (r *Recorder) IncCleanupFailure(step string) {
	r.cleanupFailures.WithLabelValues(step).Inc()
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
