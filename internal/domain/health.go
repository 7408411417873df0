package domain

import "time"

// ChannelHealthStatus is the monitor's view of one registered channel type.
// A channel is forced unhealthy once ConsecutiveFailures reaches the
// configured threshold; a single recorded success resets both fields.
type ChannelHealthStatus struct {
	ChannelType         ChannelType   `json:"channelType"`
	Healthy             bool          `json:"healthy"`
	LastCheck           time.Time     `json:"lastCheck"`
	Latency             time.Duration `json:"latency,omitempty"`
	RateLimit           *RateLimit    `json:"rateLimit,omitempty"`
	LastError           string        `json:"lastError,omitempty"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
}
