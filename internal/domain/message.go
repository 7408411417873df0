// Package domain defines the channel-agnostic message model and the
// contract every channel adapter implements.
package domain

import "time"

// ChannelType identifies a logical communication channel.
type ChannelType string

const (
	ChannelWhatsApp  ChannelType = "whatsapp"
	ChannelSMS       ChannelType = "sms"
	ChannelInstagram ChannelType = "instagram"
	ChannelFacebook  ChannelType = "facebook"
)

// Direction of a message relative to this system.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// SenderType classifies who authored a message.
type SenderType string

const (
	SenderAgent   SenderType = "agent"
	SenderContact SenderType = "contact"
	SenderSystem  SenderType = "system"
)

// ContentType selects which payload field of a CanonicalMessage is set.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentMedia ContentType = "media"
	ContentRich  ContentType = "rich"
)

// MessageStatus tracks delivery progress of a message.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// Media describes an attachment carried by a media message.
type Media struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
}

// RichContent carries structured channel payloads (buttons, quick replies,
// locations, contact cards). Payload stays opaque to the router; only the
// adapter for the target channel interprets it.
type RichContent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// CanonicalMessage is the wire-format-independent message unit that every
// adapter consumes and produces. Exactly one of Content, Media, RichContent
// carries the payload matching ContentType.
type CanonicalMessage struct {
	ID               string            `json:"id"`
	ConversationID   string            `json:"conversationId,omitempty"`
	ChannelType      ChannelType       `json:"channelType"`
	ChannelMessageID string            `json:"channelMessageId,omitempty"` // vendor ID, empty until sent/received
	Direction        Direction         `json:"direction"`
	SenderType       SenderType        `json:"senderType"`
	ContentType      ContentType       `json:"contentType"`
	Content          string            `json:"content,omitempty"`
	Media            *Media            `json:"media,omitempty"`
	RichContent      *RichContent      `json:"richContent,omitempty"`
	Status           MessageStatus     `json:"status"`
	ChannelMetadata  map[string]string `json:"channelMetadata,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Meta returns a channel metadata value, tolerating a nil map.
func (m *CanonicalMessage) Meta(key string) string {
	if m.ChannelMetadata == nil {
		return ""
	}
	return m.ChannelMetadata[key]
}

// HasPayload reports whether the message carries any payload at all.
func (m *CanonicalMessage) HasPayload() bool {
	return m.Content != "" || m.Media != nil || m.RichContent != nil
}
