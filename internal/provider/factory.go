package provider

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/channel/twilio"
	"github.com/soyeahso/switchboard/internal/channel/whatsapp"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

// StaticFactory builds WhatsApp adapters from fixed credentials. Every tenant
// shares the same credential set; a nil section means that provider has no
// credentials on file and cannot be constructed.
type StaticFactory struct {
	CloudAPI *whatsapp.CloudConfig
	Twilio   *twilio.Config
	Log      *logging.Logger
}

// Providers lists the provider names this factory knows how to build.
func (f *StaticFactory) Providers() []string {
	return []string{whatsapp.ProviderCloudAPI, twilio.ProviderTwilio}
}

// Adapter constructs the named provider's adapter.
func (f *StaticFactory) Adapter(_ context.Context, tenantID, provider string) (domain.ChannelAdapter, error) {
	switch provider {
	case whatsapp.ProviderCloudAPI:
		if f.CloudAPI == nil {
			return nil, fmt.Errorf("no cloud_api credentials on file for tenant %s", tenantID)
		}
		return whatsapp.NewCloud(*f.CloudAPI, f.Log), nil
	case twilio.ProviderTwilio:
		if f.Twilio == nil {
			return nil, fmt.Errorf("no twilio credentials on file for tenant %s", tenantID)
		}
		return twilio.NewWhatsApp(*f.Twilio, f.Log), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
