package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, Validate(&cfg))
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "logging.level", issues[0].Path)
}

func TestValidate_IncompleteChannelCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.WhatsApp = &WhatsAppConfig{PhoneNumberID: "123"}
	cfg.Channels.Twilio = &TwilioConfig{AuthToken: "tok"}
	cfg.Channels.Instagram = &GraphConfig{PageID: "ig-1"}

	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "channels.whatsapp.accessToken")
	assert.Contains(t, paths, "channels.twilio.accountSid")
	assert.Contains(t, paths, "channels.instagram.accessToken")
	assert.NotContains(t, paths, "channels.whatsapp.phoneNumberId")
}

func TestValidate_TwilioDefaultRequiresTwilioConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Fallback.DefaultProvider = "twilio"
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "fallback.defaultProvider")
}

func TestValidate_NegativeHealthValues(t *testing.T) {
	cfg := Defaults()
	cfg.Health.CheckIntervalMS = -1
	cfg.Health.UnhealthyThreshold = -3

	issues := Validate(&cfg)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].String(), "must not be negative")
	assert.Contains(t, issues[1].String(), "must not be negative")

	// zero falls back to defaults before validation, so it is not an issue
	cfg = Config{}
	applyDefaults(&cfg)
	assert.Nil(t, Validate(&cfg))
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := Defaults()
	cfg.Fallback.DefaultProvider = "carrier_pigeon"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].String(), "carrier_pigeon")
}
