// Package metrics exports Prometheus counters for the refresh pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const namespace = "content_refresher"

// Metrics holds all pipeline Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	CandidatesTotal *prometheus.CounterVec
	SynthesisTotal  *prometheus.CounterVec
	JobsTotal       *prometheus.CounterVec
}

var _ ports.RefreshMetrics = (*Metrics)(nil)

// New registers every metric on a private registry, plus the Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Article refreshes by outcome.",
		}, []string{"success"}),
		RefreshDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a single article refresh.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"success"}),
		CandidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_extractions_total",
			Help:      "Competitor page extractions by outcome.",
		}, []string{"success"}),
		SynthesisTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syntheses_total",
			Help:      "Content syntheses by mode (model or fallback).",
		}, []string{"mode"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished background jobs by kind and state.",
		}, []string{"kind", "state"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRefresh(success bool, elapsed time.Duration) {
	label := strconv.FormatBool(success)
	m.RefreshesTotal.WithLabelValues(label).Inc()
	m.RefreshDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCandidate(succeeded bool) {
	m.CandidatesTotal.WithLabelValues(strconv.FormatBool(succeeded)).Inc()
}

func (m *Metrics) ObserveSynthesis(fallback bool) {
	mode := "model"
	if fallback {
		mode = "fallback"
	}
	m.SynthesisTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) ObserveJob(kind domain.JobKind, state domain.JobState) {
	m.JobsTotal.WithLabelValues(string(kind), string(state)).Inc()
}
