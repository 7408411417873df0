package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func healthyProbe(_ context.Context) domain.HealthResult {
	return domain.HealthResult{Healthy: true, Latency: 5 * time.Millisecond}
}

func unhealthyProbe(_ context.Context) domain.HealthResult {
	return domain.HealthResult{Healthy: false, LastError: "connection refused"}
}

func TestMonitor_RegisterOptimisticallyHealthy(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())
	m.Register(domain.ChannelWhatsApp, healthyProbe)

	assert.True(t, m.IsHealthy(domain.ChannelWhatsApp))
	st, ok := m.Status(domain.ChannelWhatsApp)
	require.True(t, ok)
	assert.Equal(t, 0, st.ConsecutiveFailures)
}

func TestMonitor_UnregisteredChannel(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())

	assert.False(t, m.IsHealthy(domain.ChannelSMS))
	_, ok := m.Status(domain.ChannelSMS)
	assert.False(t, ok)
}

func TestMonitor_ThresholdFlipsUnhealthy(t *testing.T) {
	m := NewMonitor(Options{UnhealthyThreshold: 3}, testLogger())
	m.Register(domain.ChannelWhatsApp, healthyProbe)

	err := errors.New("send failed")
	m.RecordFailure(domain.ChannelWhatsApp, err)
	m.RecordFailure(domain.ChannelWhatsApp, err)
	assert.True(t, m.IsHealthy(domain.ChannelWhatsApp), "below threshold stays healthy")

	m.RecordFailure(domain.ChannelWhatsApp, err)
	assert.False(t, m.IsHealthy(domain.ChannelWhatsApp))

	st, _ := m.Status(domain.ChannelWhatsApp)
	assert.Equal(t, 3, st.ConsecutiveFailures)
	assert.Equal(t, "send failed", st.LastError)
}

func TestMonitor_SingleSuccessResets(t *testing.T) {
	m := NewMonitor(Options{UnhealthyThreshold: 3}, testLogger())
	m.Register(domain.ChannelSMS, healthyProbe)

	for i := 0; i < 5; i++ {
		m.RecordFailure(domain.ChannelSMS, errors.New("timeout"))
	}
	require.False(t, m.IsHealthy(domain.ChannelSMS))

	m.RecordSuccess(domain.ChannelSMS)
	assert.True(t, m.IsHealthy(domain.ChannelSMS))
	st, _ := m.Status(domain.ChannelSMS)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Empty(t, st.LastError)
}

func TestMonitor_UnregisterRemovesStatus(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())
	m.Register(domain.ChannelFacebook, healthyProbe)
	m.Unregister(domain.ChannelFacebook)

	_, ok := m.Status(domain.ChannelFacebook)
	assert.False(t, ok)
	assert.Empty(t, m.All())
}

func TestMonitor_RecordForUnknownChannelIsNoop(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())
	m.RecordFailure(domain.ChannelInstagram, errors.New("x"))
	m.RecordSuccess(domain.ChannelInstagram)
	assert.Empty(t, m.All())
}

func TestMonitor_CheckHealthOnDemand(t *testing.T) {
	m := NewMonitor(Options{UnhealthyThreshold: 1}, testLogger())
	m.Register(domain.ChannelWhatsApp, unhealthyProbe)

	res, ok := m.CheckHealth(context.Background(), domain.ChannelWhatsApp)
	require.True(t, ok)
	assert.False(t, res.Healthy)
	assert.False(t, m.IsHealthy(domain.ChannelWhatsApp), "probe outcome applies to status")

	_, ok = m.CheckHealth(context.Background(), domain.ChannelSMS)
	assert.False(t, ok)
}

func TestMonitor_ProbeRateLimitSurfaced(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())
	reset := time.Now().Add(time.Minute)
	m.Register(domain.ChannelWhatsApp, func(_ context.Context) domain.HealthResult {
		return domain.HealthResult{Healthy: true, RateLimit: &domain.RateLimit{Remaining: 7, ResetAt: reset}}
	})

	_, ok := m.CheckHealth(context.Background(), domain.ChannelWhatsApp)
	require.True(t, ok)
	st, _ := m.Status(domain.ChannelWhatsApp)
	require.NotNil(t, st.RateLimit)
	assert.Equal(t, 7, st.RateLimit.Remaining)
}

func TestMonitor_SweepTolerantOfFailingProbe(t *testing.T) {
	m := NewMonitor(Options{CheckInterval: 10 * time.Millisecond, UnhealthyThreshold: 1}, testLogger())

	var smsProbes atomic.Int32
	m.Register(domain.ChannelWhatsApp, unhealthyProbe)
	m.Register(domain.ChannelSMS, func(_ context.Context) domain.HealthResult {
		smsProbes.Add(1)
		return domain.HealthResult{Healthy: true}
	})

	ctx := context.Background()
	m.Start(ctx)
	defer m.Stop()

	// The failing whatsapp probe must not prevent sms probes from running.
	assert.Eventually(t, func() bool { return smsProbes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.IsHealthy(domain.ChannelWhatsApp))
	assert.True(t, m.IsHealthy(domain.ChannelSMS))
}

func TestMonitor_SweepProbesConcurrently(t *testing.T) {
	m := NewMonitor(Options{UnhealthyThreshold: 1}, testLogger())

	slow := make(chan struct{})
	var fastDone atomic.Bool
	m.Register(domain.ChannelWhatsApp, func(_ context.Context) domain.HealthResult {
		<-slow
		return domain.HealthResult{Healthy: true}
	})
	m.Register(domain.ChannelSMS, func(_ context.Context) domain.HealthResult {
		fastDone.Store(true)
		return domain.HealthResult{Healthy: true}
	})

	go m.sweep(context.Background())

	// The fast probe completes while the slow one is still hanging.
	assert.Eventually(t, func() bool { return fastDone.Load() }, time.Second, 5*time.Millisecond)
	close(slow)
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	m := NewMonitor(Options{CheckInterval: time.Hour}, testLogger())
	ctx := context.Background()

	m.Start(ctx)
	m.Start(ctx) // second start is a no-op
	m.Stop()
	m.Stop() // second stop is a no-op

	// Restart after stop works.
	m.Start(ctx)
	m.Stop()
}

func TestMonitor_DefaultOptions(t *testing.T) {
	m := NewMonitor(Options{}, testLogger())
	assert.Equal(t, DefaultCheckInterval, m.interval)
	assert.Equal(t, DefaultUnhealthyThreshold, m.threshold)
}
