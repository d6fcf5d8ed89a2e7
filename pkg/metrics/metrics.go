package metrics

import (
	"runtime"
	"time"
)

// RecordStep records one full timestep evaluation
func (r *Registry) RecordStep(duration time.Duration) {
	r.StepsTotal.Inc()
	r.StepDuration.Observe(duration.Seconds())
}

// RecordPass records the duration of one evaluation pass
func (r *Registry) RecordPass(pass string, duration time.Duration) {
	r.PassDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// RecordOverflow accumulates reinjection overflow for a phase
func (r *Registry) RecordOverflow(phase string, rate float64) {
	r.OverflowTotal.WithLabelValues(phase).Add(rate)
}

// SetNodeCount sets the registered node count for a node kind
func (r *Registry) SetNodeCount(kind string, count int) {
	r.NetworkNodes.WithLabelValues(kind).Set(float64(count))
}

// SetDependencyPairs sets the size of the recorded dependency set
func (r *Registry) SetDependencyPairs(count int) {
	r.DependencyPairs.Set(float64(count))
}

// RecordControl records one control application
func (r *Registry) RecordControl(kind string) {
	r.ControlApplications.WithLabelValues(kind).Inc()
}

// RecordNewton records the outcome of a Newton solve
func (r *Registry) RecordNewton(iterations int, converged bool) {
	r.NewtonIterations.Observe(float64(iterations))
	if !converged {
		r.NewtonFailures.Inc()
	}
}

// RecordHistoryAppend records one history log append
func (r *Registry) RecordHistoryAppend(rawBytes, compressedBytes int, duration time.Duration) {
	r.HistoryAppendsTotal.Inc()
	r.HistoryBytesTotal.Add(float64(rawBytes))
	r.HistoryCompressedBytes.Add(float64(compressedBytes))
	r.HistoryAppendDuration.Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes the process-level gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
