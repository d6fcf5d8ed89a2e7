package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Engine Metrics
	StepsTotal          prometheus.Counter
	StepDuration        prometheus.Histogram
	PassDuration        *prometheus.HistogramVec
	OverflowTotal       *prometheus.CounterVec
	NetworkNodes        *prometheus.GaugeVec
	DependencyPairs     prometheus.Gauge
	ControlApplications *prometheus.CounterVec

	// Solver Metrics
	NewtonIterations prometheus.Histogram
	NewtonFailures   prometheus.Counter

	// History Metrics
	HistoryAppendsTotal    prometheus.Counter
	HistoryBytesTotal      prometheus.Counter
	HistoryCompressedBytes prometheus.Counter
	HistoryAppendDuration  prometheus.Histogram

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initEngineMetrics()
	r.initSolverMetrics()
	r.initHistoryMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
