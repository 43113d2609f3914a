// Package metrics exposes Prometheus instruments for optimization jobs and
// point reprojection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gridopt"

// Metrics groups the instruments recorded by the service.
type Metrics struct {
	Evaluations       *prometheus.CounterVec
	JobDuration       *prometheus.HistogramVec
	ActiveJobs        prometheus.Gauge
	ReprojectedPoints *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective function evaluations, by optimizer backend.",
		}, []string{"backend"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of optimization jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"backend", "status"}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Optimization jobs currently running.",
		}),
		ReprojectedPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reprojected_points_total",
			Help:      "Points snapped onto a model surface, by point kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.Evaluations, m.JobDuration, m.ActiveJobs, m.ReprojectedPoints)
	}
	return m
}

// JobStarted marks a job as running and returns a function that records its
// completion with the given status.
func (m *Metrics) JobStarted(backend string) func(status string, evaluations int) {
	start := time.Now()
	m.ActiveJobs.Inc()
	return func(status string, evaluations int) {
		m.ActiveJobs.Dec()
		m.Evaluations.WithLabelValues(backend).Add(float64(evaluations))
		m.JobDuration.WithLabelValues(backend, status).Observe(time.Since(start).Seconds())
	}
}

// Reprojected records n points of the given kind.
func (m *Metrics) Reprojected(kind string, n int) {
	m.ReprojectedPoints.WithLabelValues(kind).Add(float64(n))
}
