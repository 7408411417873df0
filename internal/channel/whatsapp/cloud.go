// Package whatsapp implements the WhatsApp Business Cloud API adapter.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

const (
	// ProviderCloudAPI identifies this adapter in provider settings.
	ProviderCloudAPI = "cloud_api"

	defaultAPIBase = "https://graph.facebook.com/v21.0"

	// Cloud API rejects text bodies over 4096 characters.
	maxTextLength = 4096
)

var cloudFeatures = []domain.Feature{
	domain.FeatureMedia,
	domain.FeatureRichContent,
	domain.FeatureReadReceipts,
	domain.FeatureLocationSharing,
	domain.FeatureContactCards,
	domain.FeatureReactions,
	domain.FeatureTypingIndicators,
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"audio/aac":       true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
	"application/pdf": true,
}

// CloudConfig holds credentials for one WhatsApp Business phone number.
type CloudConfig struct {
	PhoneNumberID string
	AccessToken   string
	// APIBase overrides the Graph API endpoint, for tests.
	APIBase string
}

// CloudAdapter talks to the WhatsApp Cloud API.
type CloudAdapter struct {
	cfg    CloudConfig
	client *http.Client
	log    *logging.Logger
}

// NewCloud creates a Cloud API adapter.
func NewCloud(cfg CloudConfig, log *logging.Logger) *CloudAdapter {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &CloudAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.Sub("whatsapp-cloud"),
	}
}

func (a *CloudAdapter) ChannelType() domain.ChannelType { return domain.ChannelWhatsApp }
func (a *CloudAdapter) Provider() string                { return ProviderCloudAPI }
func (a *CloudAdapter) Features() []domain.Feature      { return cloudFeatures }

func (a *CloudAdapter) SupportsFeature(f domain.Feature) bool {
	return domain.HasFeature(cloudFeatures, f)
}

// ValidateMessage checks Cloud API constraints without network calls.
func (a *CloudAdapter) ValidateMessage(msg *domain.CanonicalMessage) []string {
	var issues []string
	if msg.Meta("phone") == "" {
		issues = append(issues, "destination phone is required in channel metadata")
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
		if msg.Media != nil && msg.Media.MimeType != "" && !allowedMimeTypes[msg.Media.MimeType] {
			issues = append(issues, "unsupported media mime type: "+msg.Media.MimeType)
		}
	case domain.ContentRich:
		if msg.RichContent == nil || msg.RichContent.Type == "" {
			issues = append(issues, "rich content type is required")
		}
	default:
		issues = append(issues, "unknown content type: "+string(msg.ContentType))
	}
	return issues
}

// Send posts the message to the phone number's /messages endpoint and
// returns the vendor message ID.
func (a *CloudAdapter) Send(ctx context.Context, msg *domain.CanonicalMessage) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                strings.TrimPrefix(msg.Meta("phone"), "+"),
	}
	switch msg.ContentType {
	case domain.ContentMedia:
		payload["type"] = msg.Media.Type
		payload[msg.Media.Type] = map[string]string{"link": msg.Media.URL}
	case domain.ContentRich:
		payload["type"] = "interactive"
		payload["interactive"] = map[string]any{
			"type": msg.RichContent.Type,
			"body": msg.RichContent.Payload,
		}
	default:
		payload["type"] = "text"
		payload["text"] = map[string]string{"body": msg.Content}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", a.cfg.APIBase, a.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		a.log.Warn().Int("status", resp.StatusCode).Msg("cloud API rejected message")
		return "", fmt.Errorf("whatsapp cloud API %d: %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Messages) == 0 {
		return "", fmt.Errorf("whatsapp cloud API returned no message id")
	}
	a.log.Debug().Str("messageId", out.Messages[0].ID).Msg("message sent")
	return out.Messages[0].ID, nil
}

// Receive normalizes a Cloud API webhook payload into a CanonicalMessage.
func (a *CloudAdapter) Receive(_ context.Context, payload []byte) (*domain.CanonicalMessage, error) {
	var wh webhookPayload
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("malformed whatsapp webhook payload: %w", err)
	}

	for _, entry := range wh.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				return a.normalize(m)
			}
		}
	}
	return nil, fmt.Errorf("whatsapp webhook payload contains no messages")
}

func (a *CloudAdapter) normalize(m webhookMessage) (*domain.CanonicalMessage, error) {
	now := time.Now()
	msg := &domain.CanonicalMessage{
		ChannelType:      domain.ChannelWhatsApp,
		ChannelMessageID: m.ID,
		Direction:        domain.DirectionInbound,
		SenderType:       domain.SenderContact,
		Status:           domain.StatusDelivered,
		ChannelMetadata:  map[string]string{"phone": "+" + m.From},
		Timestamp:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if secs, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
		msg.Timestamp = time.Unix(secs, 0)
	}

	switch {
	case m.Type == "text" && m.Text != nil:
		msg.ContentType = domain.ContentText
		msg.Content = m.Text.Body
	case m.Type == "image" || m.Type == "video" || m.Type == "audio" || m.Type == "document":
		msg.ContentType = domain.ContentMedia
		msg.Media = &domain.Media{Type: m.Type}
		if media := m.media(); media != nil {
			msg.Media.MimeType = media.MimeType
			msg.ChannelMetadata["media_id"] = media.ID
		}
	default:
		return nil, fmt.Errorf("unsupported whatsapp message type %q", m.Type)
	}
	return msg, nil
}

// MessageStatus fetches the delivery status of a sent message.
func (a *CloudAdapter) MessageStatus(ctx context.Context, channelMessageID string) (domain.MessageStatus, error) {
	url := fmt.Sprintf("%s/%s", a.cfg.APIBase, channelMessageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whatsapp cloud API %d: %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return mapVendorStatus(out.Status), nil
}

// HealthCheck probes the phone number resource as a cheap liveness signal.
// Failures are reported in the result, never returned.
func (a *CloudAdapter) HealthCheck(ctx context.Context) domain.HealthResult {
	start := time.Now()
	url := fmt.Sprintf("%s/%s?fields=display_phone_number", a.cfg.APIBase, a.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.HealthResult{Healthy: false, LastError: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	resp, err := a.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.HealthResult{Healthy: false, Latency: latency, LastError: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res := domain.HealthResult{
		Healthy:   resp.StatusCode == http.StatusOK,
		Latency:   latency,
		RateLimit: rateLimitFromHeaders(resp.Header),
	}
	if !res.Healthy {
		res.LastError = fmt.Sprintf("whatsapp cloud API health check returned %d", resp.StatusCode)
	}
	return res
}

func rateLimitFromHeaders(h http.Header) *domain.RateLimit {
	remaining := h.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}
	rl := &domain.RateLimit{Remaining: n}
	if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if secs, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rl.ResetAt = time.Unix(secs, 0)
		}
	}
	return rl
}

func mapVendorStatus(s string) domain.MessageStatus {
	switch s {
	case "sent", "accepted":
		return domain.StatusSent
	case "delivered":
		return domain.StatusDelivered
	case "read":
		return domain.StatusRead
	case "failed":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}

// --- Cloud API webhook payload types ---

type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
	Field string       `json:"field"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *webhookText  `json:"text,omitempty"`
	Image     *webhookMedia `json:"image,omitempty"`
	Video     *webhookMedia `json:"video,omitempty"`
	Audio     *webhookMedia `json:"audio,omitempty"`
	Document  *webhookMedia `json:"document,omitempty"`
}

// media returns the attachment payload, which arrives under the JSON key
// named by Type.
func (m webhookMessage) media() *webhookMedia {
	switch m.Type {
	case "image":
		return m.Image
	case "video":
		return m.Video
	case "audio":
		return m.Audio
	case "document":
		return m.Document
	}
	return nil
}

type webhookText struct {
	Body string `json:"body"`
}

type webhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}
