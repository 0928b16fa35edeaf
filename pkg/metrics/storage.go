package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics records collection file activity.
type StorageMetrics struct {
	duration     *prometheus.HistogramVec
	failures     *prometheus.CounterVec
	lockTimeouts *prometheus.CounterVec
	corruptReads *prometheus.CounterVec
}

// NewStorageMetrics registers the storage metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_operation_duration_seconds",
		Help:    "Duration of collection file operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection", "op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_operation_failures_total",
		Help: "Failed collection file operations.",
	}, []string{"collection", "op"})
	lockTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_lock_timeouts_total",
		Help: "Collection lock acquisitions that exceeded the configured bound.",
	}, []string{"collection"})
	corruptReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_corrupt_reads_total",
		Help: "Collection files that failed to parse and were read as empty.",
	}, []string{"collection"})
	reg.MustRegister(duration, failures, lockTimeouts, corruptReads)
	return &StorageMetrics{
		duration:     duration,
		failures:     failures,
		lockTimeouts: lockTimeouts,
		corruptReads: corruptReads,
	}
}

// ObserveDuration records how long op took against collection.
func (m *StorageMetrics) ObserveDuration(collection, op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(collection), normalizeLabel(op)).Observe(duration.Seconds())
}

// IncFailure counts a failed op against collection.
func (m *StorageMetrics) IncFailure(collection, op string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(collection), normalizeLabel(op)).Inc()
}

// IncLockTimeout counts a lock wait that ran out.
func (m *StorageMetrics) IncLockTimeout(collection string) {
	if m == nil || m.lockTimeouts == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncCorruptRead counts a file that was treated as empty because it did not parse.
func (m *StorageMetrics) IncCorruptRead(collection string) {
	if m == nil || m.corruptReads == nil {
		return
	}
	m.corruptReads.WithLabelValues(normalizeLabel(collection)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
