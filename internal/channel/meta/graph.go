// Package meta implements the Messenger and Instagram adapters on the Meta
// Graph send API.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
)

const defaultAPIBase = "https://graph.facebook.com/v21.0"

// Messenger caps a text message at 2000 characters.
const maxTextLength = 2000

// Config holds the page (or Instagram professional account) credentials.
type Config struct {
	PageID      string
	AccessToken string
	// APIBase overrides the Graph API endpoint, for tests.
	APIBase string
}

// graphClient wraps the Graph send API shared by both adapters.
type graphClient struct {
	cfg  Config
	http *http.Client
}

func newGraphClient(cfg Config) *graphClient {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &graphClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// sendMessage posts to /me/messages and returns the vendor message ID.
func (c *graphClient) sendMessage(ctx context.Context, recipientID string, message map[string]any) (string, error) {
	payload := map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", c.cfg.APIBase, c.cfg.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("graph API %d: %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.MessageID, nil
}

// healthCheck probes the authenticated page resource.
func (c *graphClient) healthCheck(ctx context.Context) domain.HealthResult {
	start := time.Now()
	url := fmt.Sprintf("%s/me?access_token=%s", c.cfg.APIBase, c.cfg.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.HealthResult{Healthy: false, LastError: err.Error()}
	}

	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.HealthResult{Healthy: false, Latency: latency, LastError: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res := domain.HealthResult{Healthy: resp.StatusCode == http.StatusOK, Latency: latency}
	if !res.Healthy {
		res.LastError = fmt.Sprintf("graph API health check returned %d", resp.StatusCode)
	}
	return res
}

// buildMessage converts canonical payload fields to a Graph message body.
func buildMessage(msg *domain.CanonicalMessage) map[string]any {
	switch msg.ContentType {
	case domain.ContentMedia:
		return map[string]any{
			"attachment": map[string]any{
				"type":    msg.Media.Type,
				"payload": map[string]any{"url": msg.Media.URL, "is_reusable": true},
			},
		}
	case domain.ContentRich:
		body := map[string]any{}
		for k, v := range msg.RichContent.Payload {
			body[k] = v
		}
		return body
	default:
		return map[string]any{"text": msg.Content}
	}
}

// firstEvent extracts the first messaging event from a platform webhook.
func firstEvent(payload []byte) (*messagingEvent, error) {
	var wh struct {
		Object string `json:"object"`
		Entry  []struct {
			Messaging []messagingEvent `json:"messaging"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("malformed graph webhook payload: %w", err)
	}
	for _, entry := range wh.Entry {
		for i := range entry.Messaging {
			if entry.Messaging[i].Message != nil {
				return &entry.Messaging[i], nil
			}
		}
	}
	return nil, fmt.Errorf("graph webhook payload contains no messages")
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Timestamp int64 `json:"timestamp"` // milliseconds
	Message   *struct {
		MID         string `json:"mid"`
		Text        string `json:"text"`
		Attachments []struct {
			Type    string `json:"type"`
			Payload struct {
				URL string `json:"url"`
			} `json:"payload"`
		} `json:"attachments"`
	} `json:"message"`
}

// normalizeEvent converts a messaging event into a CanonicalMessage for the
// given channel, with the sender ID stored under idKey.
func normalizeEvent(ev *messagingEvent, channel domain.ChannelType, idKey string) *domain.CanonicalMessage {
	now := time.Now()
	msg := &domain.CanonicalMessage{
		ChannelType:      channel,
		ChannelMessageID: ev.Message.MID,
		Direction:        domain.DirectionInbound,
		SenderType:       domain.SenderContact,
		ContentType:      domain.ContentText,
		Content:          ev.Message.Text,
		Status:           domain.StatusDelivered,
		ChannelMetadata:  map[string]string{idKey: ev.Sender.ID},
		Timestamp:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if ev.Timestamp > 0 {
		msg.Timestamp = time.UnixMilli(ev.Timestamp)
	}
	if len(ev.Message.Attachments) > 0 {
		att := ev.Message.Attachments[0]
		msg.ContentType = domain.ContentMedia
		msg.Content = ""
		msg.Media = &domain.Media{Type: att.Type, URL: att.Payload.URL}
	}
	return msg
}
