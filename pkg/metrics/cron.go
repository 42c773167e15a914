package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics are labelled by job name. A nil or unregistered value records nothing.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	m := &CronJobMetrics{}
	if reg == nil {
		return m
	}
	byJob := []string{"job"}
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_duration_seconds",
		Help:      "Wall time of each cron job run.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, byJob)
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_success_total",
		Help:      "Cron job runs that returned without error.",
	}, byJob)
	m.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_failure_total",
		Help:      "Cron job runs that errored or panicked.",
	}, byJob)
	reg.MustRegister(m.duration, m.runs, m.failures)
	return m
}

func (m *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if m != nil && m.duration != nil {
		m.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
	}
}

func (m *CronJobMetrics) IncSuccess(job string) {
	if m != nil && m.runs != nil {
		m.runs.WithLabelValues(normalizeLabel(job)).Inc()
	}
}

func (m *CronJobMetrics) IncFailure(job string) {
	if m != nil && m.failures != nil {
		m.failures.WithLabelValues(normalizeLabel(job)).Inc()
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
