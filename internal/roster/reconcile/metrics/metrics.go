package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for event reconciliation.
type Metrics struct {
	// Events handled by kind and outcome
	EventsHandled *prometheus.CounterVec

	// Reconcile latency by event kind
	ReconcileLatency *prometheus.HistogramVec

	// Snapshot sync size and duration
	SnapshotSize     prometheus.Gauge
	SnapshotDuration prometheus.Histogram

	// Stale member links repaired by the orphan sweep
	SweepHealed prometheus.Counter
}

// New creates a Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterbridge_events_handled_total",
			Help: "Total guild events handled by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "error"

		ReconcileLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rosterbridge_reconcile_duration_seconds",
			Help:    "Duration of event reconciliation by event kind",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),

		SnapshotSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rosterbridge_snapshot_members",
			Help: "Member count in the most recent snapshot sync",
		}),

		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rosterbridge_snapshot_sync_duration_seconds",
			Help:    "Duration of full snapshot synchronization",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		SweepHealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterbridge_sweep_healed_total",
			Help: "Total stale member links repaired by the orphan sweep",
		}),
	}
}

// IncrementEvent records one handled event.
func (m *Metrics) IncrementEvent(kind, outcome string) {
	if m != nil {
		m.EventsHandled.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveReconcileLatency records the duration of handling one event.
func (m *Metrics) ObserveReconcileLatency(kind string, d time.Duration) {
	if m != nil {
		m.ReconcileLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// ObserveSnapshot records the size and duration of a snapshot sync.
func (m *Metrics) ObserveSnapshot(size int, d time.Duration) {
	if m != nil {
		m.SnapshotSize.Set(float64(size))
		m.SnapshotDuration.Observe(d.Seconds())
	}
}

// AddSweepHealed records links repaired by one sweep pass.
func (m *Metrics) AddSweepHealed(n int) {
	if m != nil && n > 0 {
		m.SweepHealed.Add(float64(n))
	}
}
