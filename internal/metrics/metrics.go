// Package metrics holds the Prometheus collectors of an indexing run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocfl_tools"

// Package outcomes.
const (
	OutcomeIndexed = "indexed"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Metrics is the set of collectors of one process. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	Packages      *prometheus.CounterVec
	Segments      prometheus.Counter
	StageDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, with the Go runtime and
// process collectors, in a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Packages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packages_total",
			Help:      "Packages processed, by outcome and failure class.",
		}, []string{"outcome", "class"}),
		Segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Transcription segments indexed.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each stage of package processing.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.Packages,
		m.Segments,
		m.StageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Package counts a processed package.
func (m *Metrics) Package(outcome, class string) {
	if m == nil {
		return
	}
	m.Packages.WithLabelValues(outcome, class).Inc()
}

// AddSegments counts indexed segments.
func (m *Metrics) AddSegments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Segments.Add(float64(n))
}

// ObserveStage records the time since start under stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
