// Package metrics exposes the Prometheus collectors of the fact API.
package metrics

import (
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry     *prometheus.Registry
	factCount    *prometheus.GaugeVec
	flagCount    prometheus.Gauge
	requestCount *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		factCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fact_count",
			Help: "How many animal facts are currently loaded",
		}, []string{"animal"}),
		flagCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flag_count",
			Help: "How many facts have been flagged",
		}),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_request_count",
			Help: "How many requests we have served",
		}, []string{"animal"}),
	}
	m.registry.MustRegister(m.factCount, m.flagCount, m.requestCount)
	return m
}

// SetFactCount records the current size of an animal's fact list.
func (m *Metrics) SetFactCount(animal models.Animal, n int) {
	m.factCount.WithLabelValues(string(animal)).Set(float64(n))
}

// SetFlagCount records the current number of flags.
func (m *Metrics) SetFlagCount(n int) {
	m.flagCount.Set(float64(n))
}

// FactServed counts one random fact served for animal.
func (m *Metrics) FactServed(animal models.Animal) {
	m.requestCount.WithLabelValues(string(animal)).Inc()
}

// Handler serves the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
