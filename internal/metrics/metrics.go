// Package metrics defines the Prometheus instrumentation shared across
// the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mutations counts ledger writes by entity and operation.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairtab_ledger_mutations_total",
		Help: "Ledger mutations by entity and operation.",
	}, []string{"entity", "op"})

	// StoreReadFailures counts soft-failed reads. Each increment means
	// a caller was handed degraded (empty) data instead of an error.
	StoreReadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairtab_store_read_failures_total",
		Help: "Storage reads that degraded to empty results.",
	})

	// ConnectivityTransitions counts online/offline flips.
	ConnectivityTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairtab_connectivity_transitions_total",
		Help: "Connectivity transitions by resulting state.",
	}, []string{"state"})

	// IdentityResolutions counts identity resolver outcomes.
	IdentityResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairtab_identity_resolutions_total",
		Help: "Identity resolutions by resulting state.",
	}, []string{"state"})
)
