// Package monitoring provides Prometheus instrumentation for the plan
// generation pipeline.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records generation outcomes, failure kinds, model
// invocation latency and cache hits. All methods are safe on a nil
// receiver so components can run uninstrumented.
type PipelineMetrics struct {
	generations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	invocations *prometheus.HistogramVec
	cacheHits   prometheus.Counter
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platewise",
			Subsystem: "planner",
			Name:      "generations_total",
			Help:      "Completed plan generations by outcome (valid or fallback).",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platewise",
			Subsystem: "planner",
			Name:      "failures_total",
			Help:      "Pipeline failures by kind before any recovery.",
		}, []string{"kind"}),
		invocations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "platewise",
			Subsystem: "planner",
			Name:      "model_invocation_seconds",
			Help:      "Latency of model invocations.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"model", "success"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platewise",
			Subsystem: "planner",
			Name:      "plan_cache_hits_total",
			Help:      "Plans served from the plan cache.",
		}),
	}
	reg.MustRegister(m.generations, m.failures, m.invocations, m.cacheHits)
	return m
}

// RecordGeneration counts a completed generation by outcome.
func (m *PipelineMetrics) RecordGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

// RecordFailure counts one pipeline failure by taxonomy kind.
func (m *PipelineMetrics) RecordFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveInvocation records the latency of one model invocation.
func (m *PipelineMetrics) ObserveInvocation(model string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(model, strconv.FormatBool(success)).Observe(d.Seconds())
}

// RecordCacheHit counts a plan served from cache.
func (m *PipelineMetrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
