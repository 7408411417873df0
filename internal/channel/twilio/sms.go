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

var smsFeatures = []domain.Feature{
	domain.FeatureMedia, // MMS, images only
}

// SMSAdapter sends plain SMS/MMS through Twilio.
type SMSAdapter struct {
	client *client
	log    *logging.Logger
}

// NewSMS creates an SMS adapter.
func NewSMS(cfg Config, log *logging.Logger) *SMSAdapter {
	return &SMSAdapter{
		client: newClient(cfg),
		log:    log.Sub("sms-twilio"),
	}
}

func (a *SMSAdapter) ChannelType() domain.ChannelType { return domain.ChannelSMS }
func (a *SMSAdapter) Provider() string                { return ProviderTwilio }
func (a *SMSAdapter) Features() []domain.Feature      { return smsFeatures }

func (a *SMSAdapter) SupportsFeature(f domain.Feature) bool {
	return domain.HasFeature(smsFeatures, f)
}

// ValidateMessage checks SMS constraints without network calls.
func (a *SMSAdapter) ValidateMessage(msg *domain.CanonicalMessage) []string {
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
		if msg.Media != nil && msg.Media.MimeType != "" && !strings.HasPrefix(msg.Media.MimeType, "image/") {
			issues = append(issues, "sms media must be an image, got "+msg.Media.MimeType)
		}
	case domain.ContentRich:
		issues = append(issues, "rich content is not supported over sms")
	}
	return issues
}

// Send posts to the Messages resource with plain E.164 addressing.
func (a *SMSAdapter) Send(ctx context.Context, msg *domain.CanonicalMessage) (string, error) {
	params := url.Values{}
	params.Set("From", a.client.cfg.From)
	params.Set("To", msg.Meta("phone"))
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
func (a *SMSAdapter) Receive(_ context.Context, payload []byte) (*domain.CanonicalMessage, error) {
	form, err := parseWebhook(payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &domain.CanonicalMessage{
		ChannelType:      domain.ChannelSMS,
		ChannelMessageID: form.Get("MessageSid"),
		Direction:        domain.DirectionInbound,
		SenderType:       domain.SenderContact,
		ContentType:      domain.ContentText,
		Content:          form.Get("Body"),
		Status:           domain.StatusDelivered,
		ChannelMetadata:  map[string]string{"phone": form.Get("From")},
		Timestamp:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if mediaURL := form.Get("MediaUrl0"); mediaURL != "" {
		msg.ContentType = domain.ContentMedia
		msg.Media = &domain.Media{
			Type:     "image",
			URL:      mediaURL,
			MimeType: form.Get("MediaContentType0"),
		}
	}
	return msg, nil
}

// MessageStatus fetches the delivery status of a message SID.
func (a *SMSAdapter) MessageStatus(ctx context.Context, channelMessageID string) (domain.MessageStatus, error) {
	return a.client.fetchMessage(ctx, channelMessageID)
}

// HealthCheck probes the Twilio account resource.
func (a *SMSAdapter) HealthCheck(ctx context.Context) domain.HealthResult {
	return a.client.healthCheck(ctx)
}
