package meta

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

var instagramFeatures = []domain.Feature{
	domain.FeatureMedia,
	domain.FeatureReactions,
	domain.FeatureTypingIndicators,
}

// InstagramAdapter sends and receives Instagram direct messages for one
// professional account. Recipients are Instagram-scoped IDs in the "igsid"
// metadata key; the human-readable handle, when known, rides along under
// "username".
type InstagramAdapter struct {
	client *graphClient
	log    *logging.Logger
}

// NewInstagram creates an Instagram messaging adapter.
func NewInstagram(cfg Config, log *logging.Logger) *InstagramAdapter {
	return &InstagramAdapter{
		client: newGraphClient(cfg),
		log:    log.Sub("instagram"),
	}
}

func (a *InstagramAdapter) ChannelType() domain.ChannelType { return domain.ChannelInstagram }
func (a *InstagramAdapter) Provider() string                { return ProviderGraph }
func (a *InstagramAdapter) Features() []domain.Feature      { return instagramFeatures }

func (a *InstagramAdapter) SupportsFeature(f domain.Feature) bool {
	return domain.HasFeature(instagramFeatures, f)
}

// ValidateMessage checks Instagram messaging constraints without network
// calls. Location and contact-card payloads are rejected up front since the
// platform has no rendering for them.
func (a *InstagramAdapter) ValidateMessage(msg *domain.CanonicalMessage) []string {
	var issues []string
	if msg.Meta("igsid") == "" {
		issues = append(issues, "recipient igsid is required in channel metadata")
	}
	switch msg.ContentType {
	case domain.ContentText:
		if msg.Content == "" {
			issues = append(issues, "text content is required")
		}
		if len(msg.Content) > maxTextLength {
			issues = append(issues, fmt.Sprintf("text exceeds %d characters", maxTextLength))
		}
	case domain.ContentMedia:
		if msg.Media == nil || msg.Media.URL == "" {
			issues = append(issues, "media URL is required")
		}
	case domain.ContentRich:
		issues = append(issues, "rich content is not supported on instagram")
	}
	return issues
}

// Send posts the message through the Graph send API.
func (a *InstagramAdapter) Send(ctx context.Context, msg *domain.CanonicalMessage) (string, error) {
	id, err := a.client.sendMessage(ctx, msg.Meta("igsid"), buildMessage(msg))
	if err != nil {
		a.log.Warn().Err(err).Msg("graph API rejected message")
		return "", err
	}
	a.log.Debug().Str("messageId", id).Msg("message sent")
	return id, nil
}

// Receive normalizes an Instagram webhook payload into a CanonicalMessage.
func (a *InstagramAdapter) Receive(_ context.Context, payload []byte) (*domain.CanonicalMessage, error) {
	ev, err := firstEvent(payload)
	if err != nil {
		return nil, err
	}
	return normalizeEvent(ev, domain.ChannelInstagram, "igsid"), nil
}

// MessageStatus is not exposed by the send API; delivery updates arrive via
// webhooks, so sent is the strongest claim available here.
func (a *InstagramAdapter) MessageStatus(_ context.Context, _ string) (domain.MessageStatus, error) {
	return domain.StatusSent, nil
}

// HealthCheck probes the authenticated account resource.
func (a *InstagramAdapter) HealthCheck(ctx context.Context) domain.HealthResult {
	return a.client.healthCheck(ctx)
}
