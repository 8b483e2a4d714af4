// Package metrics counts fits and steering steps with prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.Fits, Observer.prometheus.Steps)
}

type Metrics struct {
	prometheus Prometheus
}

// Fit records the outcome of a fit stage ("pca", "circle", ...).
func (m *Metrics) Fit(stage string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.prometheus.Fits.WithLabelValues(stage, outcome).Inc()
}

// Step records one steering step for the given projection method.
func (m *Metrics) Step(method string) {
	m.prometheus.Steps.WithLabelValues(method).Inc()
}
