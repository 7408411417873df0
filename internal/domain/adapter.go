package domain

import (
	"context"
	"time"
)

// Feature is a capability flag an adapter may advertise.
type Feature string

const (
	FeatureMedia            Feature = "media"
	FeatureRichContent      Feature = "rich_content"
	FeatureReadReceipts     Feature = "read_receipts"
	FeatureLocationSharing  Feature = "location_sharing"
	FeatureContactCards     Feature = "contact_cards"
	FeatureReactions        Feature = "reactions"
	FeatureTypingIndicators Feature = "typing_indicators"
)

// RateLimit is a vendor-reported quota hint.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// HealthResult is the outcome of a liveness probe. Probes never return a Go
// error; failures are reported in the result so one bad adapter cannot abort
// a probe sweep.
type HealthResult struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency,omitempty"`
	LastError string        `json:"lastError,omitempty"`
	RateLimit *RateLimit    `json:"rateLimit,omitempty"`
}

// ChannelAdapter is the capability set every channel/provider implementation
// must expose. The router depends only on this contract, never on a shared
// base implementation.
type ChannelAdapter interface {
	// ChannelType returns the logical channel this adapter serves.
	ChannelType() ChannelType

	// Provider names the concrete backend (e.g. "cloud_api", "twilio").
	Provider() string

	// Send transmits an outbound message and returns the vendor message ID.
	// Ordinary vendor rejections come back as errors for the router to
	// classify; adapters must not panic on them.
	Send(ctx context.Context, msg *CanonicalMessage) (string, error)

	// Receive normalizes a raw webhook payload into a CanonicalMessage.
	// Malformed payloads return a descriptive error.
	Receive(ctx context.Context, payload []byte) (*CanonicalMessage, error)

	// ValidateMessage checks per-channel constraints without network calls.
	// An empty slice means the message is valid.
	ValidateMessage(msg *CanonicalMessage) []string

	// SupportsFeature reports whether the adapter implements a capability.
	SupportsFeature(f Feature) bool

	// Features lists all advertised capabilities.
	Features() []Feature

	// MessageStatus fetches the delivery status of a previously sent message.
	MessageStatus(ctx context.Context, channelMessageID string) (MessageStatus, error)

	// HealthCheck performs a cheap liveness probe against the vendor.
	HealthCheck(ctx context.Context) HealthResult
}

// HasFeature is a helper for adapters that keep their capabilities in a slice.
func HasFeature(features []Feature, f Feature) bool {
	for _, have := range features {
		if have == f {
			return true
		}
	}
	return false
}
