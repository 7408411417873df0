package domain

import "time"

// RoutingResult is the per-message outcome of a route call. It is never
// persisted by this subsystem; bulk senders inspect it per message instead
// of handling errors.
type RoutingResult struct {
	Success          bool        `json:"success"`
	ChannelMessageID string      `json:"channelMessageId,omitempty"`
	Error            string      `json:"error,omitempty"`
	Retryable        bool        `json:"retryable"`
	ChannelType      ChannelType `json:"channelType"`
	RoutedAt         time.Time   `json:"routedAt"`
}

// ProviderSettings records, per tenant, which concrete provider handles a
// multi-provider logical channel and where to fail over.
type ProviderSettings struct {
	TenantID            string      `json:"tenantId"`
	ChannelType         ChannelType `json:"channelType"`
	ActiveProvider      string      `json:"activeProvider"`
	FallbackEnabled     bool        `json:"fallbackEnabled"`
	FallbackProvider    string      `json:"fallbackProvider,omitempty"`
	PreferTemplatesFrom string      `json:"preferTemplatesFrom,omitempty"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}
