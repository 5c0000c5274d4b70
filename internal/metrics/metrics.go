// Package metrics exposes Prometheus collectors for heal operations.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors recorded by the healer, pipeline and API.
type Metrics struct {
	reg *prom.Registry

	healDuration prom.Histogram
	healOutcomes *prom.CounterVec
	replaced     *prom.CounterVec
	jobs         *prom.CounterVec
	queueDepth   prom.Gauge
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		reg: reg,
		healDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "headfix",
			Name:      "heal_duration_seconds",
			Help:      "Duration of heal calls",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}),
		healOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "headfix",
			Name:      "heal_outcomes_total",
			Help:      "Heal calls by outcome",
		}, []string{"outcome"}),
		replaced: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "headfix",
			Name:      "headings_replaced_total",
			Help:      "Headings replaced, by original and assigned rank",
		}, []string{"from", "to"}),
		jobs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "headfix",
			Name:      "jobs_total",
			Help:      "Batch jobs by final status",
		}, []string{"status"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: "headfix",
			Name:      "job_queue_depth",
			Help:      "Jobs waiting for a worker",
		}),
	}
	reg.MustRegister(m.healDuration, m.healOutcomes, m.replaced, m.jobs, m.queueDepth)
	return m
}

// WithRuntime also registers the Go and process collectors.
func (m *Metrics) WithRuntime() *Metrics {
	m.reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// ObserveHeal records one heal call. All recorders are no-ops on a nil Metrics.
func (m *Metrics) ObserveHeal(d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.healDuration.Observe(d.Seconds())
	m.healOutcomes.WithLabelValues(outcome).Inc()
}

// IncReplaced counts one heading moved from one tag to another.
func (m *Metrics) IncReplaced(from, to string) {
	if m == nil {
		return
	}
	m.replaced.WithLabelValues(from, to).Inc()
}

// IncJob counts a batch job reaching status.
func (m *Metrics) IncJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

// SetQueueDepth reports jobs waiting for a worker.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
