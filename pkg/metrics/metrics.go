package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FieldMetrics records operational counters for the offline-first data path.
type FieldMetrics struct {
	syncPasses     *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	recordsCreated *prometheus.CounterVec
	routeSamples   *prometheus.CounterVec
}

// Sync pass outcomes.
const (
	SyncOutcomeCompleted = "completed"
	SyncOutcomeCancelled = "cancelled"
	SyncOutcomeFailed    = "failed"
)

// Route sample dispositions.
const (
	RouteSampleKept    = "kept"
	RouteSampleDropped = "dropped"
)

// NewFieldMetrics registers the field metrics on the provided registerer.
func NewFieldMetrics(reg prometheus.Registerer) *FieldMetrics {
	if reg == nil {
		return &FieldMetrics{}
	}
	syncPasses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_passes_total",
		Help: "Sync passes by outcome.",
	}, []string{"outcome"})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_pass_duration_seconds",
		Help:    "Duration of completed sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	recordsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "visit_records_created_total",
		Help: "Visit records created, by sync status at creation.",
	}, []string{"sync_status"})
	routeSamples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_samples_total",
		Help: "GPS samples by disposition (kept or dropped below jitter threshold).",
	}, []string{"disposition"})
	reg.MustRegister(syncPasses, syncDuration, recordsCreated, routeSamples)
	return &FieldMetrics{
		syncPasses:     syncPasses,
		syncDuration:   syncDuration,
		recordsCreated: recordsCreated,
		routeSamples:   routeSamples,
	}
}

// IncSyncPass counts a sync pass with the given outcome.
func (m *FieldMetrics) IncSyncPass(outcome string) {
	if m == nil || m.syncPasses == nil {
		return
	}
	m.syncPasses.WithLabelValues(outcome).Inc()
}

// ObserveSyncDuration records how long a completed pass took.
func (m *FieldMetrics) ObserveSyncDuration(duration time.Duration) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Observe(duration.Seconds())
}

// IncRecordCreated counts a new record by its creation-time sync status.
func (m *FieldMetrics) IncRecordCreated(syncStatus string) {
	if m == nil || m.recordsCreated == nil {
		return
	}
	m.recordsCreated.WithLabelValues(syncStatus).Inc()
}

// IncRouteSample counts a GPS sample disposition.
func (m *FieldMetrics) IncRouteSample(disposition string) {
	if m == nil || m.routeSamples == nil {
		return
	}
	m.routeSamples.WithLabelValues(disposition).Inc()
}
