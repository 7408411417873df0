// Package routing provides the unified message router: one registry of
// channel adapters, health-gated outbound dispatch, and inbound webhook
// normalization.
package routing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/health"
	"github.com/soyeahso/switchboard/internal/logging"
)

// Options configures a Router.
type Options struct {
	// EnableHealthChecks controls the periodic probe sweep. Disable in tests
	// to avoid background timers; passive health recording still works.
	EnableHealthChecks bool
}

// Router is the single entry point for outbound and inbound messages across
// all registered channels. Outbound failures are returned inside
// RoutingResult, never as errors, so bulk senders can process a mixed batch.
type Router struct {
	mu       sync.RWMutex
	adapters map[domain.ChannelType]domain.ChannelAdapter

	monitor      *health.Monitor
	healthChecks bool
	log          *logging.Logger
}

// NewRouter creates a router backed by the given health monitor.
func NewRouter(monitor *health.Monitor, opts Options, log *logging.Logger) *Router {
	return &Router{
		adapters:     make(map[domain.ChannelType]domain.ChannelAdapter),
		monitor:      monitor,
		healthChecks: opts.EnableHealthChecks,
		log:          log.Sub("router"),
	}
}

// Start launches the background health probe sweep when enabled.
func (r *Router) Start(ctx context.Context) {
	if r.healthChecks {
		r.monitor.Start(ctx)
	}
}

// Shutdown stops periodic health checks and clears the adapter registry.
// Idempotent. In-flight sends are not cancelled; they complete or fail on
// their own.
func (r *Router) Shutdown() {
	if r.healthChecks {
		r.monitor.Stop()
	}
	r.mu.Lock()
	for channel := range r.adapters {
		r.monitor.Unregister(channel)
		delete(r.adapters, channel)
	}
	r.mu.Unlock()
	r.log.Info().Msg("router shut down")
}

// RegisterAdapter adds an adapter and begins health tracking for its
// channel. Registering over an existing channel replaces it, last write
// wins.
func (r *Router) RegisterAdapter(adapter domain.ChannelAdapter) {
	channel := adapter.ChannelType()

	r.mu.Lock()
	if prev, ok := r.adapters[channel]; ok {
		r.log.Warn().
			Str("channel", string(channel)).
			Str("previous", prev.Provider()).
			Str("replacement", adapter.Provider()).
			Msg("replacing registered adapter")
	}
	r.adapters[channel] = adapter
	r.mu.Unlock()

	r.monitor.Register(channel, adapter.HealthCheck)
	r.log.Info().
		Str("channel", string(channel)).
		Str("provider", adapter.Provider()).
		Msg("adapter registered")
}

// UnregisterAdapter removes the adapter for a channel and drops its health
// state.
func (r *Router) UnregisterAdapter(channel domain.ChannelType) {
	r.mu.Lock()
	delete(r.adapters, channel)
	r.mu.Unlock()

	r.monitor.Unregister(channel)
	r.log.Info().Str("channel", string(channel)).Msg("adapter unregistered")
}

// Adapter returns the registered adapter for a channel.
func (r *Router) Adapter(channel domain.ChannelType) (domain.ChannelAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[channel]
	return a, ok
}

// Channels lists all registered channel types.
func (r *Router) Channels() []domain.ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ChannelType, 0, len(r.adapters))
	for channel := range r.adapters {
		out = append(out, channel)
	}
	return out
}

// Route dispatches an outbound message through the adapter for its channel.
// The pipeline is strict: adapter lookup, health gate, feature gate,
// validation, send. Every failure mode comes back in the result.
func (r *Router) Route(ctx context.Context, msg *domain.CanonicalMessage) domain.RoutingResult {
	adapter, ok := r.Adapter(msg.ChannelType)
	if !ok {
		return r.failure(msg.ChannelType, fmt.Sprintf("no adapter registered for channel %q", msg.ChannelType), false)
	}

	// Unhealthy channels are skipped without attempting the send; the
	// channel may recover, so the caller can retry.
	if !r.monitor.IsHealthy(msg.ChannelType) {
		return r.failure(msg.ChannelType, fmt.Sprintf("channel %q is unhealthy", msg.ChannelType), true)
	}

	if msg.RichContent != nil && !adapter.SupportsFeature(domain.FeatureRichContent) {
		return r.failure(msg.ChannelType, fmt.Sprintf("channel %q does not support rich content", msg.ChannelType), false)
	}
	if msg.Media != nil && !adapter.SupportsFeature(domain.FeatureMedia) {
		return r.failure(msg.ChannelType, fmt.Sprintf("channel %q does not support media", msg.ChannelType), false)
	}

	if issues := adapter.ValidateMessage(msg); len(issues) > 0 {
		return r.failure(msg.ChannelType, "validation failed: "+strings.Join(issues, "; "), false)
	}

	channelMessageID, err := adapter.Send(ctx, msg)
	if err != nil {
		r.monitor.RecordFailure(msg.ChannelType, err)
		retryable := IsRetryable(err)
		r.log.Error().Err(err).
			Str("channel", string(msg.ChannelType)).
			Bool("retryable", retryable).
			Msg("send failed")
		return r.failure(msg.ChannelType, err.Error(), retryable)
	}

	r.monitor.RecordSuccess(msg.ChannelType)
	r.log.Debug().
		Str("channel", string(msg.ChannelType)).
		Str("channelMessageId", channelMessageID).
		Msg("message routed")
	return domain.RoutingResult{
		Success:          true,
		ChannelMessageID: channelMessageID,
		ChannelType:      msg.ChannelType,
		RoutedAt:         time.Now(),
	}
}

// Receive normalizes a raw inbound webhook payload through the adapter for
// the channel. Unlike Route, errors propagate to the caller: the webhook
// collaborator owns ack/retry semantics and may want vendor-side redelivery.
func (r *Router) Receive(ctx context.Context, channel domain.ChannelType, payload []byte) (*domain.CanonicalMessage, error) {
	adapter, ok := r.Adapter(channel)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for channel %q", channel)
	}

	msg, err := adapter.Receive(ctx, payload)
	if err != nil {
		r.monitor.RecordFailure(channel, err)
		return nil, fmt.Errorf("receiving on %s: %w", channel, err)
	}

	r.monitor.RecordSuccess(channel)
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Direction = domain.DirectionInbound
	r.log.Debug().
		Str("channel", string(channel)).
		Str("channelMessageId", msg.ChannelMessageID).
		Msg("inbound message normalized")
	return msg, nil
}

// HealthStatus returns the health of every registered channel.
func (r *Router) HealthStatus() []domain.ChannelHealthStatus {
	return r.monitor.All()
}

// ChannelHealth returns the health of one channel, reporting absence for
// unregistered channels instead of failing.
func (r *Router) ChannelHealth(channel domain.ChannelType) (domain.ChannelHealthStatus, bool) {
	return r.monitor.Status(channel)
}

// SupportsFeature reports a channel capability; unregistered channels
// support nothing.
func (r *Router) SupportsFeature(channel domain.ChannelType, f domain.Feature) bool {
	adapter, ok := r.Adapter(channel)
	if !ok {
		return false
	}
	return adapter.SupportsFeature(f)
}

func (r *Router) failure(channel domain.ChannelType, errMsg string, retryable bool) domain.RoutingResult {
	return domain.RoutingResult{
		Success:     false,
		Error:       errMsg,
		Retryable:   retryable,
		ChannelType: channel,
		RoutedAt:    time.Now(),
	}
}
