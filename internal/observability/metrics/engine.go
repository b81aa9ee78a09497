package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics observes search-engine health independently of the
// serving transport. It carries no registry of its own; the owning
// process registers its collectors alongside whichever registry it
// exposes.
type EngineMetrics struct {
	degradedTotal *prometheus.CounterVec
}

func NewEngineMetrics() *EngineMetrics {
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "search",
			Name:      "degraded_results_total",
			Help:      "Remote searches that degraded to an empty result.",
		},
		[]string{"engine"},
	)
	return &EngineMetrics{degradedTotal: degradedTotal}
}

// SearchDegraded counts one remote search served as an empty result.
func (m *EngineMetrics) SearchDegraded(engine string) {
	m.degradedTotal.WithLabelValues(engine).Inc()
}

func (m *EngineMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.degradedTotal}
}
