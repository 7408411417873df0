package cli

import (
	"time"

	"github.com/soyeahso/switchboard/internal/channel/meta"
	"github.com/soyeahso/switchboard/internal/channel/twilio"
	"github.com/soyeahso/switchboard/internal/channel/whatsapp"
	"github.com/soyeahso/switchboard/internal/config"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/health"
	"github.com/soyeahso/switchboard/internal/provider"
	"github.com/soyeahso/switchboard/internal/routing"
	"github.com/soyeahso/switchboard/internal/store"
)

// buildRouter assembles the router with every adapter the config has
// credentials for. The WhatsApp slot gets the configured default provider;
// per-tenant fallback resolution happens at send time.
func buildRouter(cfg *config.Config) *routing.Router {
	monitor := health.NewMonitor(health.Options{
		CheckInterval:      time.Duration(cfg.Health.CheckIntervalMS) * time.Millisecond,
		UnhealthyThreshold: cfg.Health.UnhealthyThreshold,
	}, log)
	router := routing.NewRouter(monitor, routing.Options{
		EnableHealthChecks: cfg.Health.ProbesEnabled(),
	}, log)

	if wa := whatsappAdapter(cfg); wa != nil {
		router.RegisterAdapter(wa)
	}
	if tw := cfg.Channels.Twilio; tw != nil && tw.SMSFrom != "" {
		router.RegisterAdapter(twilio.NewSMS(twilio.Config{
			AccountSID: tw.AccountSID,
			AuthToken:  tw.AuthToken,
			From:       tw.SMSFrom,
		}, log))
	}
	if fb := cfg.Channels.Facebook; fb != nil {
		router.RegisterAdapter(meta.NewFacebook(meta.Config{
			PageID:      fb.PageID,
			AccessToken: fb.AccessToken,
		}, log))
	}
	if ig := cfg.Channels.Instagram; ig != nil {
		router.RegisterAdapter(meta.NewInstagram(meta.Config{
			PageID:      ig.PageID,
			AccessToken: ig.AccessToken,
		}, log))
	}

	return router
}

// whatsappAdapter picks the WhatsApp adapter for the configured default
// provider, falling back to whichever backend has credentials.
func whatsappAdapter(cfg *config.Config) domain.ChannelAdapter {
	cloudOK := cfg.Channels.WhatsApp != nil
	twilioOK := cfg.Channels.Twilio != nil && cfg.Channels.Twilio.WhatsAppFrom != ""

	useCloud := cfg.Fallback.DefaultProvider != twilio.ProviderTwilio
	if useCloud && !cloudOK {
		useCloud = false
	}
	if !useCloud && !twilioOK {
		useCloud = cloudOK
	}

	switch {
	case useCloud && cloudOK:
		return whatsapp.NewCloud(whatsapp.CloudConfig{
			PhoneNumberID: cfg.Channels.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.Channels.WhatsApp.AccessToken,
		}, log)
	case twilioOK:
		return twilio.NewWhatsApp(twilio.Config{
			AccountSID: cfg.Channels.Twilio.AccountSID,
			AuthToken:  cfg.Channels.Twilio.AuthToken,
			From:       cfg.Channels.Twilio.WhatsAppFrom,
		}, log)
	default:
		return nil
	}
}

// whatsappFactory builds the per-tenant adapter factory from config
// credentials.
func whatsappFactory(cfg *config.Config) *provider.StaticFactory {
	f := &provider.StaticFactory{Log: log}
	if wa := cfg.Channels.WhatsApp; wa != nil {
		f.CloudAPI = &whatsapp.CloudConfig{
			PhoneNumberID: wa.PhoneNumberID,
			AccessToken:   wa.AccessToken,
		}
	}
	if tw := cfg.Channels.Twilio; tw != nil && tw.WhatsAppFrom != "" {
		f.Twilio = &twilio.Config{
			AccountSID: tw.AccountSID,
			AuthToken:  tw.AuthToken,
			From:       tw.WhatsAppFrom,
		}
	}
	return f
}

// openFallback opens the settings database and builds the WhatsApp provider
// fallback service. The caller closes the returned DB.
func openFallback(cfg *config.Config) (*store.DB, *provider.Fallback, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(paths.StorePath(cfg), log)
	if err != nil {
		return nil, nil, err
	}
	settings := store.NewProviderSettingsStore(db)
	fb := provider.NewFallback(domain.ChannelWhatsApp, cfg.Fallback.DefaultProvider, settings, whatsappFactory(cfg), log)
	return db, fb, nil
}
