package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records the behavior of the per-session sync workers.
type SyncMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_command_duration_seconds",
		Help:    "Duration of cart sync commands in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_command_success",
		Help: "Successful cart sync commands.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_command_failure",
		Help: "Cart sync commands that failed after retries.",
	}, []string{"op"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_queue_depth",
		Help: "Commands waiting across all session queues.",
	})
	reg.MustRegister(duration, success, failure, queueDepth)
	return &SyncMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		queueDepth: queueDepth,
	}
}

// ObserveDuration records the duration for the named command op.
func (m *SyncMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named op.
func (m *SyncMetrics) IncSuccess(op string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named op.
func (m *SyncMetrics) IncFailure(op string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// QueueDepthAdd moves the shared queue depth gauge.
func (m *SyncMetrics) QueueDepthAdd(delta float64) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Add(delta)
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
