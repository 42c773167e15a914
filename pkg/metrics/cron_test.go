package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveDuration("pending-payment-expiry", 250*time.Millisecond)
	m.IncSuccess("pending-payment-expiry")
	m.IncSuccess("pending-payment-expiry")
	m.IncFailure("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	ok, err := fetchCounterValue(mfs, "storefront_cron_job_success_total", "job", "pending-payment-expiry")
	require.NoError(t, err)
	assert.Equal(t, 2.0, ok)

	failed, err := fetchCounterValue(mfs, "storefront_cron_job_failure_total", "job", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, failed)

	sum, err := fetchHistogramSum(mfs, "storefront_cron_job_duration_seconds", "job", "pending-payment-expiry")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sum, 1e-9)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	assert.NotPanics(t, func() {
		m.IncSuccess("x")
		m.IncFailure("x")
		m.ObserveDuration("x", time.Second)
		NewCronJobMetrics(nil).IncSuccess("x")
	})
}
