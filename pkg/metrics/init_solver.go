package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSolverMetrics() {
	r.NewtonIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcenet_newton_iterations",
			Help:    "Iterations used per Newton solve",
			Buckets: []float64{1, 2, 4, 8, 16, 30},
		},
	)

	r.NewtonFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sourcenet_newton_failures_total",
			Help: "Total number of Newton solves that did not converge",
		},
	)
}
