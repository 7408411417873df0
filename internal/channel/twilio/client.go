// Package twilio implements the Twilio-backed adapters: WhatsApp over
// Twilio's messaging API and plain SMS.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
)

const defaultAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio caps a single message body at 1600 characters.
const maxBodyLength = 1600

// Config holds credentials shared by both Twilio adapters.
type Config struct {
	AccountSID string
	AuthToken  string
	// From is the sending number: E.164 for SMS, the sandbox or business
	// number for WhatsApp.
	From string
	// APIBase overrides the REST endpoint, for tests.
	APIBase string
}

// client wraps the Twilio REST API with basic auth.
type client struct {
	cfg  Config
	http *http.Client
}

func newClient(cfg Config) *client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type messageResource struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// createMessage posts to the Messages resource and returns the message SID.
func (c *client) createMessage(ctx context.Context, params url.Values) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.APIBase, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twilio API %d: %s", resp.StatusCode, string(respBody))
	}

	var res messageResource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return res.SID, nil
}

// fetchMessage reads the delivery status of a message SID.
func (c *client) fetchMessage(ctx context.Context, sid string) (domain.MessageStatus, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages/%s.json", c.cfg.APIBase, c.cfg.AccountSID, sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twilio API %d: %s", resp.StatusCode, string(respBody))
	}

	var res messageResource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return mapTwilioStatus(res.Status), nil
}

// healthCheck probes the account resource.
func (c *client) healthCheck(ctx context.Context) domain.HealthResult {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/Accounts/%s.json", c.cfg.APIBase, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.HealthResult{Healthy: false, LastError: err.Error()}
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.HealthResult{Healthy: false, Latency: latency, LastError: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res := domain.HealthResult{Healthy: resp.StatusCode == http.StatusOK, Latency: latency}
	if !res.Healthy {
		res.LastError = fmt.Sprintf("twilio health check returned %d", resp.StatusCode)
	}
	return res
}

// parseWebhook decodes a Twilio form-encoded webhook body.
func parseWebhook(payload []byte) (url.Values, error) {
	form, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("malformed twilio webhook payload: %w", err)
	}
	if form.Get("MessageSid") == "" {
		return nil, fmt.Errorf("twilio webhook payload missing MessageSid")
	}
	return form, nil
}

func mapTwilioStatus(s string) domain.MessageStatus {
	switch s {
	case "queued", "accepted", "sending", "scheduled":
		return domain.StatusPending
	case "sent":
		return domain.StatusSent
	case "delivered":
		return domain.StatusDelivered
	case "read":
		return domain.StatusRead
	case "failed", "undelivered", "canceled":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}
