package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for role projection.
type Metrics struct {
	// Role grant attempts by role and outcome
	RoleGrants *prometheus.CounterVec

	// Players whose team reference points at a missing team
	DanglingTeamRefs prometheus.Counter

	// Projections skipped because the cached role set was unchanged
	CacheSkips prometheus.Counter

	// Full projection latency including external grants
	ProjectLatency prometheus.Histogram
}

// New creates a Metrics instance with all projection metrics registered.
func New() *Metrics {
	return &Metrics{
		RoleGrants: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterbridge_role_grants_total",
			Help: "Total role grant attempts by role and outcome",
		}, []string{"role", "outcome"}), // outcome: "ok", "error"

		DanglingTeamRefs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterbridge_dangling_team_refs_total",
			Help: "Total projections aborted because the player's team no longer exists",
		}),

		CacheSkips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rosterbridge_projection_cache_skips_total",
			Help: "Total projections skipped because the role set was unchanged",
		}),

		ProjectLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rosterbridge_projection_duration_seconds",
			Help:    "Duration of full role projection including guild grants",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementGrant records one grant attempt.
func (m *Metrics) IncrementGrant(role, outcome string) {
	if m != nil {
		m.RoleGrants.WithLabelValues(role, outcome).Inc()
	}
}

// IncrementDanglingRef records a projection stopped by a missing team.
func (m *Metrics) IncrementDanglingRef() {
	if m != nil {
		m.DanglingTeamRefs.Inc()
	}
}

// IncrementCacheSkip records a projection short-circuited by the role cache.
func (m *Metrics) IncrementCacheSkip() {
	if m != nil {
		m.CacheSkips.Inc()
	}
}

// ObserveProjectLatency records the duration of a full projection.
func (m *Metrics) ObserveProjectLatency(d time.Duration) {
	if m != nil {
		m.ProjectLatency.Observe(d.Seconds())
	}
}
