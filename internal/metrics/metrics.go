// Package metrics holds the process-wide prometheus collectors.
//
// Every failure the core recovers from is counted here, so a fleet that
// silently degrades to local-only behaviour is still visible on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageFaults counts swallowed local storage errors by operation.
	StorageFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stampbook_local_storage_faults_total",
		Help: "Local cache operations that failed and were treated as not owned / not written",
	}, []string{"op"})

	// RemoteFetches counts remote stamp record reads by outcome.
	RemoteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stampbook_remote_fetches_total",
		Help: "Remote stamp record reads by outcome (ok, error, skipped)",
	}, []string{"outcome"})

	// RemoteWrites counts best-effort remote writes by kind and outcome.
	RemoteWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stampbook_remote_writes_total",
		Help: "Best-effort remote writes by kind (stamp, survey) and outcome",
	}, []string{"kind", "outcome"})

	// Reconciliations counts reconciliation passes by completion result.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stampbook_reconciliations_total",
		Help: "Reconciliation passes by target set and completion",
	}, []string{"set", "completed"})

	// RemoteFetchDuration observes remote read latency.
	RemoteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stampbook_remote_fetch_duration_seconds",
		Help:    "Duration of remote stamp record reads",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Notifications counts notifier decisions by outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stampbook_completion_notifications_total",
		Help: "Completion notifier decisions (notified, suppressed, stale)",
	}, []string{"decision"})
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// BoolLabel renders a bool as a label value.
func BoolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
