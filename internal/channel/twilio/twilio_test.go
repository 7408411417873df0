package twilio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func testConfig(apiBase string) Config {
	return Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550001111",
		APIBase:    apiBase,
	}
}

func outbound(channel domain.ChannelType, body string) *domain.CanonicalMessage {
	return &domain.CanonicalMessage{
		ChannelType:     channel,
		Direction:       domain.DirectionOutbound,
		SenderType:      domain.SenderAgent,
		ContentType:     domain.ContentText,
		Content:         body,
		ChannelMetadata: map[string]string{"phone": "+12345678900"},
	}
}

func TestWhatsApp_Identity(t *testing.T) {
	a := NewWhatsApp(testConfig(""), testLogger())
	assert.Equal(t, domain.ChannelWhatsApp, a.ChannelType())
	assert.Equal(t, "twilio", a.Provider())
	assert.True(t, a.SupportsFeature(domain.FeatureMedia))
	assert.False(t, a.SupportsFeature(domain.FeatureRichContent))
}

func TestSMS_Identity(t *testing.T) {
	a := NewSMS(testConfig(""), testLogger())
	assert.Equal(t, domain.ChannelSMS, a.ChannelType())
	assert.Equal(t, "twilio", a.Provider())
	assert.False(t, a.SupportsFeature(domain.FeatureRichContent))
}

func TestWhatsApp_Send(t *testing.T) {
	var gotForm url.Values
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _, _ = r.BasicAuth()
		r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM123", "status": "queued"})
	}))
	defer srv.Close()

	a := NewWhatsApp(testConfig(srv.URL), testLogger())
	id, err := a.Send(context.Background(), outbound(domain.ChannelWhatsApp, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "SM123", id)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "whatsapp:+15550001111", gotForm.Get("From"))
	assert.Equal(t, "whatsapp:+12345678900", gotForm.Get("To"))
	assert.Equal(t, "hi", gotForm.Get("Body"))
}

func TestWhatsApp_SendLogsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"sid": "SMLOG", "status": "queued"})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	a := NewWhatsApp(testConfig(srv.URL), logging.New(&buf, "debug"))
	_, err := a.Send(context.Background(), outbound(domain.ChannelWhatsApp, "hi"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "message sent")
	assert.Contains(t, buf.String(), "SMLOG")

	buf.Reset()
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	sms := NewSMS(testConfig(rejecting.URL), logging.New(&buf, "debug"))
	_, err = sms.Send(context.Background(), outbound(domain.ChannelSMS, "hi"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "rejected message")
}

func TestSMS_Send(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM456"})
	}))
	defer srv.Close()

	a := NewSMS(testConfig(srv.URL), testLogger())
	id, err := a.Send(context.Background(), outbound(domain.ChannelSMS, "ping"))
	require.NoError(t, err)
	assert.Equal(t, "SM456", id)
	assert.Equal(t, "+15550001111", gotForm.Get("From"))
	assert.Equal(t, "+12345678900", gotForm.Get("To"))
}

func TestSend_VendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message": "service unavailable"}`))
	}))
	defer srv.Close()

	a := NewSMS(testConfig(srv.URL), testLogger())
	_, err := a.Send(context.Background(), outbound(domain.ChannelSMS, "ping"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestValidateMessage(t *testing.T) {
	wa := NewWhatsApp(testConfig(""), testLogger())
	sms := NewSMS(testConfig(""), testLogger())

	assert.Empty(t, wa.ValidateMessage(outbound(domain.ChannelWhatsApp, "ok")))
	assert.Empty(t, sms.ValidateMessage(outbound(domain.ChannelSMS, "ok")))

	long := outbound(domain.ChannelSMS, strings.Repeat("x", maxBodyLength+1))
	issues := sms.ValidateMessage(long)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "1600")

	rich := outbound(domain.ChannelSMS, "")
	rich.ContentType = domain.ContentRich
	rich.RichContent = &domain.RichContent{Type: "buttons"}
	issues = sms.ValidateMessage(rich)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "rich content")

	video := outbound(domain.ChannelSMS, "")
	video.ContentType = domain.ContentMedia
	video.Media = &domain.Media{Type: "video", URL: "https://example.com/v.mp4", MimeType: "video/mp4"}
	issues = sms.ValidateMessage(video)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "must be an image")
}

func TestWhatsApp_Receive(t *testing.T) {
	a := NewWhatsApp(testConfig(""), testLogger())
	form := url.Values{}
	form.Set("MessageSid", "SM789")
	form.Set("From", "whatsapp:+12345678900")
	form.Set("Body", "hello back")

	msg, err := a.Receive(context.Background(), []byte(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, "SM789", msg.ChannelMessageID)
	assert.Equal(t, "+12345678900", msg.Meta("phone"), "whatsapp: prefix stripped")
	assert.Equal(t, "hello back", msg.Content)
	assert.Equal(t, domain.SenderContact, msg.SenderType)
}

func TestSMS_ReceiveWithMedia(t *testing.T) {
	a := NewSMS(testConfig(""), testLogger())
	form := url.Values{}
	form.Set("MessageSid", "MM001")
	form.Set("From", "+12345678900")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://api.twilio.com/media/1")
	form.Set("MediaContentType0", "image/jpeg")

	msg, err := a.Receive(context.Background(), []byte(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, domain.ContentMedia, msg.ContentType)
	require.NotNil(t, msg.Media)
	assert.Equal(t, "image/jpeg", msg.Media.MimeType)
}

func TestReceive_Malformed(t *testing.T) {
	a := NewSMS(testConfig(""), testLogger())

	_, err := a.Receive(context.Background(), []byte("Body=hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageSid")

	_, err = a.Receive(context.Background(), []byte("%zz"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/Accounts/AC123.json")
		json.NewEncoder(w).Encode(map[string]string{"status": "active"})
	}))
	defer srv.Close()

	a := NewSMS(testConfig(srv.URL), testLogger())
	res := a.HealthCheck(context.Background())
	assert.True(t, res.Healthy)

	srv.Close()
	res = a.HealthCheck(context.Background())
	assert.False(t, res.Healthy)
	assert.NotEmpty(t, res.LastError)
}

func TestMessageStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM123", "status": "undelivered"})
	}))
	defer srv.Close()

	a := NewWhatsApp(testConfig(srv.URL), testLogger())
	st, err := a.MessageStatus(context.Background(), "SM123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, st)
}

func TestMapTwilioStatus(t *testing.T) {
	assert.Equal(t, domain.StatusPending, mapTwilioStatus("queued"))
	assert.Equal(t, domain.StatusSent, mapTwilioStatus("sent"))
	assert.Equal(t, domain.StatusDelivered, mapTwilioStatus("delivered"))
	assert.Equal(t, domain.StatusRead, mapTwilioStatus("read"))
	assert.Equal(t, domain.StatusFailed, mapTwilioStatus("failed"))
	assert.Equal(t, domain.StatusPending, mapTwilioStatus("mystery"))
}
