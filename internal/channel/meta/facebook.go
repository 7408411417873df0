package meta

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

// ProviderGraph identifies the Graph-API-backed adapters in provider settings.
const ProviderGraph = "graph"

var facebookFeatures = []domain.Feature{
	domain.FeatureMedia,
	domain.FeatureRichContent,
	domain.FeatureReadReceipts,
	domain.FeatureTypingIndicators,
}

// FacebookAdapter sends and receives Messenger messages for one page.
// Recipients are page-scoped IDs (PSIDs), carried in the "psid" metadata key.
type FacebookAdapter struct {
	client *graphClient
	log    *logging.Logger
}

// NewFacebook creates a Messenger adapter.
func NewFacebook(cfg Config, log *logging.Logger) *FacebookAdapter {
	return &FacebookAdapter{
		client: newGraphClient(cfg),
		log:    log.Sub("facebook"),
	}
}

func (a *FacebookAdapter) ChannelType() domain.ChannelType { return domain.ChannelFacebook }
func (a *FacebookAdapter) Provider() string                { return ProviderGraph }
func (a *FacebookAdapter) Features() []domain.Feature      { return facebookFeatures }

func (a *FacebookAdapter) SupportsFeature(f domain.Feature) bool {
	return domain.HasFeature(facebookFeatures, f)
}

// ValidateMessage checks Messenger constraints without network calls.
func (a *FacebookAdapter) ValidateMessage(msg *domain.CanonicalMessage) []string {
	var issues []string
	if msg.Meta("psid") == "" {
		issues = append(issues, "recipient psid is required in channel metadata")
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
		if msg.RichContent == nil || len(msg.RichContent.Payload) == 0 {
			issues = append(issues, "rich content payload is required")
		}
	}
	return issues
}

// Send posts the message through the Graph send API.
func (a *FacebookAdapter) Send(ctx context.Context, msg *domain.CanonicalMessage) (string, error) {
	id, err := a.client.sendMessage(ctx, msg.Meta("psid"), buildMessage(msg))
	if err != nil {
		a.log.Warn().Err(err).Msg("graph API rejected message")
		return "", err
	}
	a.log.Debug().Str("messageId", id).Msg("message sent")
	return id, nil
}

// Receive normalizes a page webhook payload into a CanonicalMessage.
func (a *FacebookAdapter) Receive(_ context.Context, payload []byte) (*domain.CanonicalMessage, error) {
	ev, err := firstEvent(payload)
	if err != nil {
		return nil, err
	}
	return normalizeEvent(ev, domain.ChannelFacebook, "psid"), nil
}

// MessageStatus is not exposed by the send API; delivery updates arrive via
// webhooks, so sent is the strongest claim available here.
func (a *FacebookAdapter) MessageStatus(_ context.Context, _ string) (domain.MessageStatus, error) {
	return domain.StatusSent, nil
}

// HealthCheck probes the authenticated page resource.
func (a *FacebookAdapter) HealthCheck(ctx context.Context) domain.HealthResult {
	return a.client.healthCheck(ctx)
}
