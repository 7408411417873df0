package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func testConfig(apiBase string) Config {
	return Config{PageID: "page-1", AccessToken: "token", APIBase: apiBase}
}

func fbText(body string) *domain.CanonicalMessage {
	return &domain.CanonicalMessage{
		ChannelType:     domain.ChannelFacebook,
		Direction:       domain.DirectionOutbound,
		SenderType:      domain.SenderAgent,
		ContentType:     domain.ContentText,
		Content:         body,
		ChannelMetadata: map[string]string{"psid": "1029384756"},
	}
}

func TestFacebook_Identity(t *testing.T) {
	a := NewFacebook(testConfig(""), testLogger())
	assert.Equal(t, domain.ChannelFacebook, a.ChannelType())
	assert.Equal(t, "graph", a.Provider())
	assert.True(t, a.SupportsFeature(domain.FeatureRichContent))
	assert.False(t, a.SupportsFeature(domain.FeatureLocationSharing))
}

func TestInstagram_Identity(t *testing.T) {
	a := NewInstagram(testConfig(""), testLogger())
	assert.Equal(t, domain.ChannelInstagram, a.ChannelType())
	assert.False(t, a.SupportsFeature(domain.FeatureRichContent))
	assert.True(t, a.SupportsFeature(domain.FeatureReactions))
}

func TestFacebook_Send(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "token", r.URL.Query().Get("access_token"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"recipient_id": "1029384756", "message_id": "m_abc"})
	}))
	defer srv.Close()

	a := NewFacebook(testConfig(srv.URL), testLogger())
	id, err := a.Send(context.Background(), fbText("hello"))
	require.NoError(t, err)
	assert.Equal(t, "m_abc", id)

	recipient := gotBody["recipient"].(map[string]any)
	assert.Equal(t, "1029384756", recipient["id"])
	message := gotBody["message"].(map[string]any)
	assert.Equal(t, "hello", message["text"])
}

func TestFacebook_SendVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid PSID"}}`))
	}))
	defer srv.Close()

	a := NewFacebook(testConfig(srv.URL), testLogger())
	_, err := a.Send(context.Background(), fbText("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid PSID")
}

func TestFacebook_SendLogsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message_id": "m_log"})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	a := NewFacebook(testConfig(srv.URL), logging.New(&buf, "debug"))
	_, err := a.Send(context.Background(), fbText("hello"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "message sent")
	assert.Contains(t, buf.String(), "m_log")

	buf.Reset()
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer rejecting.Close()

	ig := NewInstagram(testConfig(rejecting.URL), logging.New(&buf, "debug"))
	msg := &domain.CanonicalMessage{
		ChannelType:     domain.ChannelInstagram,
		ContentType:     domain.ContentText,
		Content:         "hello",
		ChannelMetadata: map[string]string{"igsid": "ig-1"},
	}
	_, err = ig.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "rejected message")
}

func TestFacebook_ValidateMessage(t *testing.T) {
	a := NewFacebook(testConfig(""), testLogger())

	assert.Empty(t, a.ValidateMessage(fbText("hi")))

	missing := fbText("hi")
	missing.ChannelMetadata = nil
	issues := a.ValidateMessage(missing)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "psid")
}

func TestInstagram_ValidateRejectsRich(t *testing.T) {
	a := NewInstagram(testConfig(""), testLogger())
	msg := &domain.CanonicalMessage{
		ChannelType:     domain.ChannelInstagram,
		ContentType:     domain.ContentRich,
		RichContent:     &domain.RichContent{Type: "location"},
		ChannelMetadata: map[string]string{"igsid": "ig-1"},
	}
	issues := a.ValidateMessage(msg)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "not supported on instagram")
}

func TestFacebook_Receive(t *testing.T) {
	a := NewFacebook(testConfig(""), testLogger())
	payload := []byte(`{
		"object": "page",
		"entry": [{"messaging": [{
			"sender": {"id": "1029384756"},
			"timestamp": 1700000000000,
			"message": {"mid": "m_in1", "text": "hey page"}
		}]}]
	}`)

	msg, err := a.Receive(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "m_in1", msg.ChannelMessageID)
	assert.Equal(t, "1029384756", msg.Meta("psid"))
	assert.Equal(t, "hey page", msg.Content)
	assert.Equal(t, int64(1700000000), msg.Timestamp.Unix())
}

func TestInstagram_ReceiveAttachment(t *testing.T) {
	a := NewInstagram(testConfig(""), testLogger())
	payload := []byte(`{
		"object": "instagram",
		"entry": [{"messaging": [{
			"sender": {"id": "ig-77"},
			"message": {"mid": "m_in2", "attachments": [{"type": "image", "payload": {"url": "https://cdn.example.com/p.jpg"}}]}
		}]}]
	}`)

	msg, err := a.Receive(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentMedia, msg.ContentType)
	require.NotNil(t, msg.Media)
	assert.Equal(t, "https://cdn.example.com/p.jpg", msg.Media.URL)
	assert.Equal(t, "ig-77", msg.Meta("igsid"))
}

func TestReceive_Malformed(t *testing.T) {
	a := NewFacebook(testConfig(""), testLogger())

	_, err := a.Receive(context.Background(), []byte(`{{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")

	_, err = a.Receive(context.Background(), []byte(`{"object": "page", "entry": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "page-1"})
	}))
	defer srv.Close()

	a := NewInstagram(testConfig(srv.URL), testLogger())
	res := a.HealthCheck(context.Background())
	assert.True(t, res.Healthy)
	assert.Greater(t, res.Latency, time.Duration(0))
}

func TestHealthCheck_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewFacebook(testConfig(srv.URL), testLogger())
	res := a.HealthCheck(context.Background())
	assert.False(t, res.Healthy)
	assert.Contains(t, res.LastError, "401")
}
