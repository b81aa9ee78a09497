package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RelevanceMetrics instruments the relevance worker.
type RelevanceMetrics struct {
	registry *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	casesTotal  *prometheus.CounterVec
	passRate    *prometheus.GaugeVec
}

func NewRelevanceMetrics(service string) *RelevanceMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "relevance",
			Name:      "runs_total",
			Help:      "Total relevance suite runs by engine and status.",
		},
		[]string{"service", "engine", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "relevance",
			Name:      "run_duration_seconds",
			Help:      "Relevance suite run duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"service", "engine"},
	)
	casesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "relevance",
			Name:      "cases_total",
			Help:      "Relevance cases evaluated by category and outcome.",
		},
		[]string{"service", "engine", "category", "outcome"},
	)
	passRate := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "corpus",
			Subsystem: "relevance",
			Name:      "pass_rate",
			Help:      "Pass rate of the most recent run per engine.",
		},
		[]string{"service", "engine"},
	)

	registry.MustRegister(runsTotal, runDuration, casesTotal, passRate)

	return &RelevanceMetrics{
		registry:    registry,
		runsTotal:   runsTotal,
		runDuration: runDuration,
		casesTotal:  casesTotal,
		passRate:    passRate,
	}
}

func (m *RelevanceMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MustRegister adds further collectors to the served registry.
func (m *RelevanceMetrics) MustRegister(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

func (m *RelevanceMetrics) FinishRun(service, engine string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(service, engine, status).Inc()
	m.runDuration.WithLabelValues(service, engine).Observe(duration.Seconds())
}

func (m *RelevanceMetrics) RecordCase(service, engine, category string, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.casesTotal.WithLabelValues(service, engine, category, outcome).Inc()
}

func (m *RelevanceMetrics) SetPassRate(service, engine string, rate float64) {
	m.passRate.WithLabelValues(service, engine).Set(rate)
}
