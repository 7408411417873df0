package provider

import (
	"context"
	"testing"

	"github.com/soyeahso/switchboard/internal/channel/twilio"
	"github.com/soyeahso/switchboard/internal/channel/whatsapp"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFactory_BuildsConfiguredProviders(t *testing.T) {
	f := &StaticFactory{
		CloudAPI: &whatsapp.CloudConfig{PhoneNumberID: "123", AccessToken: "tok"},
		Twilio:   &twilio.Config{AccountSID: "AC1", AuthToken: "tok", From: "+15550001111"},
		Log:      logging.New(nil, "silent"),
	}

	assert.Equal(t, []string{"cloud_api", "twilio"}, f.Providers())

	a, err := f.Adapter(context.Background(), "t1", "cloud_api")
	require.NoError(t, err)
	assert.Equal(t, "cloud_api", a.Provider())
	assert.Equal(t, domain.ChannelWhatsApp, a.ChannelType())

	a, err = f.Adapter(context.Background(), "t1", "twilio")
	require.NoError(t, err)
	assert.Equal(t, "twilio", a.Provider())
	assert.Equal(t, domain.ChannelWhatsApp, a.ChannelType())
}

func TestStaticFactory_MissingCredentials(t *testing.T) {
	f := &StaticFactory{
		CloudAPI: &whatsapp.CloudConfig{PhoneNumberID: "123", AccessToken: "tok"},
		Log:      logging.New(nil, "silent"),
	}

	_, err := f.Adapter(context.Background(), "t1", "twilio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no twilio credentials")

	_, err = f.Adapter(context.Background(), "t1", "smoke_signals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
