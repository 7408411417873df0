// Package health tracks per-channel liveness from active probes and passive
// traffic outcomes.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

const (
	// DefaultCheckInterval is how often the background sweep probes every
	// registered channel.
	DefaultCheckInterval = 60 * time.Second

	// DefaultUnhealthyThreshold is the consecutive-failure count that flips
	// a channel to unhealthy.
	DefaultUnhealthyThreshold = 3
)

// Probe performs a cheap liveness check for one channel. Probes report
// failures in the result instead of returning errors.
type Probe func(ctx context.Context) domain.HealthResult

// Options configures a Monitor. Zero values fall back to defaults.
type Options struct {
	CheckInterval      time.Duration
	UnhealthyThreshold int
}

// Monitor keeps one health status per registered channel type. A channel has
// exactly two observable states, healthy and unhealthy, transitioned only by
// the consecutive-failure counter crossing the threshold. Any single success
// resets the counter and restores health.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[domain.ChannelType]*domain.ChannelHealthStatus
	probes   map[domain.ChannelType]Probe

	interval  time.Duration
	threshold int

	running bool
	stop    chan struct{}
	done    chan struct{}

	log *logging.Logger
}

// NewMonitor creates a monitor. Start must be called to begin active probing;
// passive recording works without it.
func NewMonitor(opts Options, log *logging.Logger) *Monitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.UnhealthyThreshold <= 0 {
		opts.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
	return &Monitor{
		statuses:  make(map[domain.ChannelType]*domain.ChannelHealthStatus),
		probes:    make(map[domain.ChannelType]Probe),
		interval:  opts.CheckInterval,
		threshold: opts.UnhealthyThreshold,
		log:       log.Sub("health"),
	}
}

// Register starts tracking a channel, initialized optimistically healthy.
// Re-registering replaces the probe and resets the status.
func (m *Monitor) Register(channel domain.ChannelType, probe Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[channel] = &domain.ChannelHealthStatus{
		ChannelType: channel,
		Healthy:     true,
		LastCheck:   time.Now(),
	}
	m.probes[channel] = probe
	m.log.Debug().Str("channel", string(channel)).Msg("channel registered")
}

// Unregister removes a channel's status entirely. No tombstone remains.
func (m *Monitor) Unregister(channel domain.ChannelType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, channel)
	delete(m.probes, channel)
	m.log.Debug().Str("channel", string(channel)).Msg("channel unregistered")
}

// RecordSuccess feeds a successful send/receive outcome into the monitor.
func (m *Monitor) RecordSuccess(channel domain.ChannelType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[channel]
	if !ok {
		return
	}
	st.ConsecutiveFailures = 0
	st.Healthy = true
	st.LastError = ""
	st.LastCheck = time.Now()
}

// RecordFailure feeds a failed send/receive outcome into the monitor. The
// channel flips unhealthy once failures reach the threshold.
func (m *Monitor) RecordFailure(channel domain.ChannelType, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[channel]
	if !ok {
		return
	}
	st.ConsecutiveFailures++
	if err != nil {
		st.LastError = err.Error()
	}
	st.LastCheck = time.Now()
	if st.ConsecutiveFailures >= m.threshold && st.Healthy {
		st.Healthy = false
		m.log.Warn().
			Str("channel", string(channel)).
			Int("failures", st.ConsecutiveFailures).
			Str("lastError", st.LastError).
			Msg("channel marked unhealthy")
	}
}

// IsHealthy reports the binary health signal. Unregistered channels are not
// healthy.
func (m *Monitor) IsHealthy(channel domain.ChannelType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[channel]
	return ok && st.Healthy
}

// Status returns a copy of one channel's health status.
func (m *Monitor) Status(channel domain.ChannelType) (domain.ChannelHealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[channel]
	if !ok {
		return domain.ChannelHealthStatus{}, false
	}
	return *st, true
}

// All returns copies of every tracked status.
func (m *Monitor) All() []domain.ChannelHealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ChannelHealthStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		out = append(out, *st)
	}
	return out
}

// CheckHealth probes one channel on demand, outside the periodic sweep, and
// applies the outcome to its status.
func (m *Monitor) CheckHealth(ctx context.Context, channel domain.ChannelType) (domain.HealthResult, bool) {
	m.mu.RLock()
	probe, ok := m.probes[channel]
	m.mu.RUnlock()
	if !ok {
		return domain.HealthResult{}, false
	}
	res := probe(ctx)
	m.applyProbe(channel, res)
	return res, true
}

// Start launches the periodic probe sweep. Calling Start on a running
// monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	m.log.Info().Dur("interval", m.interval).Msg("starting health checks")

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the probe sweep and waits for it to exit. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	<-done
	m.log.Info().Msg("health checks stopped")
}

// sweep probes every registered channel concurrently. Each probe applies in
// isolation; a failing or slow probe never delays or fails the others.
func (m *Monitor) sweep(ctx context.Context) {
	m.mu.RLock()
	probes := make(map[domain.ChannelType]Probe, len(m.probes))
	for ch, p := range m.probes {
		probes[ch] = p
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for ch, probe := range probes {
		wg.Add(1)
		go func(ch domain.ChannelType, probe Probe) {
			defer wg.Done()
			res := probe(ctx)
			m.applyProbe(ch, res)
		}(ch, probe)
	}
	wg.Wait()
}

// applyProbe merges a probe result into the channel's status. The channel
// may have been unregistered while the probe was in flight; the result is
// then dropped.
func (m *Monitor) applyProbe(channel domain.ChannelType, res domain.HealthResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[channel]
	if !ok {
		return
	}
	st.LastCheck = time.Now()
	st.Latency = res.Latency
	if res.RateLimit != nil {
		st.RateLimit = res.RateLimit
	}
	if res.Healthy {
		st.ConsecutiveFailures = 0
		st.Healthy = true
		st.LastError = ""
		return
	}
	st.ConsecutiveFailures++
	st.LastError = res.LastError
	if st.ConsecutiveFailures >= m.threshold && st.Healthy {
		st.Healthy = false
		m.log.Warn().
			Str("channel", string(channel)).
			Int("failures", st.ConsecutiveFailures).
			Str("lastError", st.LastError).
			Msg("channel marked unhealthy by probe")
	}
}
