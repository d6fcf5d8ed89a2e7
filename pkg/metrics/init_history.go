package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHistoryMetrics() {
	r.HistoryAppendsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sourcenet_history_appends_total",
			Help: "Total number of timestep records appended to the history log",
		},
	)

	r.HistoryBytesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sourcenet_history_bytes_total",
			Help: "Uncompressed bytes appended to the history log",
		},
	)

	r.HistoryCompressedBytes = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sourcenet_history_compressed_bytes_total",
			Help: "Compressed bytes written to the history log",
		},
	)

	r.HistoryAppendDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcenet_history_append_duration_seconds",
			Help:    "History append duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)
}
