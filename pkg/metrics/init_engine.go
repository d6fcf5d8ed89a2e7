package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sourcenet_steps_total",
			Help: "Total number of timesteps evaluated",
		},
	)

	r.StepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcenet_step_duration_seconds",
			Help:    "Full timestep evaluation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	r.PassDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcenet_pass_duration_seconds",
			Help:    "Per-pass evaluation duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"pass"},
	)

	r.OverflowTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcenet_reinjection_overflow_total",
			Help: "Cumulative reinjection overflow rate by phase",
		},
		[]string{"phase"},
	)

	r.NetworkNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sourcenet_network_nodes",
			Help: "Number of registered network nodes by kind",
		},
		[]string{"kind"},
	)

	r.DependencyPairs = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "sourcenet_dependency_pairs",
			Help: "Number of recorded Jacobian dependency pairs",
		},
	)

	r.ControlApplications = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcenet_control_applications_total",
			Help: "Total number of control applications by control kind",
		},
		[]string{"kind"},
	)
}
