package twilio

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

// ProviderTwilio identifies the Twilio-backed adapters in provider settings.
const ProviderTwilio = "twilio"

var whatsappFeatures = []domain.Feature{
	domain.FeatureMedia,
	domain.FeatureReadReceipts,
	domain.FeatureLocationSharing,
}

// WhatsAppAdapter sends WhatsApp messages through Twilio's messaging API.
// Interchangeable with the Cloud API adapter for the same logical channel.
type WhatsAppAdapter struct {
	client *client
	log    *logging.Logger
}

// NewWhatsApp creates a WhatsApp-over-Twilio adapter.
func NewWhatsApp(cfg Config, log *logging.Logger) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		client: newClient(cfg),
		log:    log.Sub("whatsapp-twilio"),
	}
}

func (a *WhatsAppAdapter) ChannelType() domain.ChannelType { return domain.ChannelWhatsApp }
func (a *WhatsAppAdapter) Provider() string                { return ProviderTwilio }
func (a *WhatsAppAdapter) Features() []domain.Feature      { return whatsappFeatures }

func (a *WhatsAppAdapter) SupportsFeature(f domain.Feature) bool {
	return domain.HasFeature(whatsappFeatures, f)
}

// ValidateMessage checks Twilio WhatsApp constraints without network calls.
func (a *WhatsAppAdapter) ValidateMessage(msg *domain.CanonicalMessage) []string {
	var issues []string
	if msg.Meta("phone") == "" {
		issues = append(issues, "destination phone is required in channel metadata")
	}
	switch msg.ContentType {
	case domain.ContentText:
		if msg.Content == "" {
			issues = append(issues, "text content is required")
		}
		if len(msg.Content) > maxBodyLength {
			issues = append(issues, fmt.Sprintf("text exceeds %d characters", maxBodyLength))
		}
	case domain.ContentMedia:
		if msg.Media == nil || msg.Media.URL == "" {
			issues = append(issues, "media URL is required")
		}
	case domain.ContentRich:
		issues = append(issues, "rich content is not supported over twilio")
	}
	return issues
}

// Send posts to the Messages resource with whatsapp: addressing.
func (a *WhatsAppAdapter) Send(ctx context.Context, msg *domain.CanonicalMessage) (string, error) {
	params := url.Values{}
	params.Set("From", "whatsapp:"+a.client.cfg.From)
	params.Set("To", "whatsapp:"+msg.Meta("phone"))
	if msg.Content != "" {
		params.Set("Body", msg.Content)
	}
	if msg.Media != nil {
		params.Set("MediaUrl", msg.Media.URL)
	}
	sid, err := a.client.createMessage(ctx, params)
	if err != nil {
		a.log.Warn().Err(err).Msg("twilio rejected message")
		return "", err
	}
	a.log.Debug().Str("sid", sid).Msg("message sent")
	return sid, nil
}

// Receive normalizes a Twilio webhook form body into a CanonicalMessage.
func (a *WhatsAppAdapter) Receive(_ context.Context, payload []byte) (*domain.CanonicalMessage, error) {
	form, err := parseWebhook(payload)
	if err != nil {
		return nil, err
	}

	from := strings.TrimPrefix(form.Get("From"), "whatsapp:")
	now := time.Now()
	msg := &domain.CanonicalMessage{
		ChannelType:      domain.ChannelWhatsApp,
		ChannelMessageID: form.Get("MessageSid"),
		Direction:        domain.DirectionInbound,
		SenderType:       domain.SenderContact,
		ContentType:      domain.ContentText,
		Content:          form.Get("Body"),
		Status:           domain.StatusDelivered,
		ChannelMetadata:  map[string]string{"phone": from},
		Timestamp:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if mediaURL := form.Get("MediaUrl0"); mediaURL != "" {
		msg.ContentType = domain.ContentMedia
		msg.Media = &domain.Media{
			Type:     "media",
			URL:      mediaURL,
			MimeType: form.Get("MediaContentType0"),
		}
	}
	return msg, nil
}

// MessageStatus fetches the delivery status of a message SID.
func (a *WhatsAppAdapter) MessageStatus(ctx context.Context, channelMessageID string) (domain.MessageStatus, error) {
	return a.client.fetchMessage(ctx, channelMessageID)
}

// HealthCheck probes the Twilio account resource.
func (a *WhatsAppAdapter) HealthCheck(ctx context.Context) domain.HealthResult {
	return a.client.healthCheck(ctx)
}
