// Package metrics holds the Prometheus collectors for the lekha pipeline.
//
// A nil *Metrics is valid and records nothing, so packages can be used in
// tests without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lekha"

// Metrics records transform and generation outcomes.
type Metrics struct {
	registry *prometheus.Registry

	transforms        *prometheus.CounterVec
	transformFailures *prometheus.CounterVec
	generations       *prometheus.CounterVec
	generateDuration  prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_total",
			Help:      "Transform calls by backend and result source.",
		}, []string{"backend", "source"}),
		transformFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_failures_total",
			Help:      "Remote transform failures by error kind.",
		}, []string{"kind"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_total",
			Help:      "Letter generations by outcome.",
		}, []string{"outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "End-to-end letter generation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.transforms,
		m.transformFailures,
		m.generations,
		m.generateDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTransform counts one transform result.
func (m *Metrics) ObserveTransform(backend, source string) {
	if m == nil {
		return
	}
	m.transforms.WithLabelValues(backend, source).Inc()
}

// ObserveTransformFailure counts one recovered remote failure.
func (m *Metrics) ObserveTransformFailure(kind string) {
	if m == nil {
		return
	}
	m.transformFailures.WithLabelValues(kind).Inc()
}

// ObserveGenerate counts one generation and its latency.
func (m *Metrics) ObserveGenerate(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.generateDuration.Observe(d.Seconds())
}
