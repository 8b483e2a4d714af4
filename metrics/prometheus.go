package metrics

import "github.com/prometheus/client_golang/prometheus"

type Prometheus struct {
	Fits  *prometheus.CounterVec
	Steps *prometheus.CounterVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "manifold",
				Name:      "fits_total",
				Help:      "Projection and circle fits by stage and outcome.",
			}, []string{"stage", "outcome"}),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "manifold",
				Name:      "steering_steps_total",
				Help:      "Steering steps applied, by projection method.",
			}, []string{"method"}),
	}
}
