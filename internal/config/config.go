// Package config loads and validates the switchboard configuration file.
package config

// Config is the root configuration for switchboard.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Health   HealthConfig   `yaml:"health,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Channels ChannelsConfig `yaml:"channels,omitempty"`
	Fallback FallbackConfig `yaml:"fallback,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "error" | "warn" | "info" | "debug"
}

// HealthConfig controls the channel health monitor.
type HealthConfig struct {
	// CheckIntervalMS is the active probe period in milliseconds.
	CheckIntervalMS int `yaml:"checkIntervalMs,omitempty"`
	// UnhealthyThreshold is the consecutive-failure count that flips a
	// channel unhealthy.
	UnhealthyThreshold int `yaml:"unhealthyThreshold,omitempty"`
	// Enabled turns the periodic probe sweep off when set to false;
	// passive health recording always runs.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// ProbesEnabled reports whether the periodic sweep should run.
func (h HealthConfig) ProbesEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// StoreConfig locates the settings database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ChannelsConfig holds per-channel credentials. A nil section leaves that
// channel unregistered.
type ChannelsConfig struct {
	WhatsApp  *WhatsAppConfig  `yaml:"whatsapp,omitempty"`
	Twilio    *TwilioConfig    `yaml:"twilio,omitempty"`
	Facebook  *GraphConfig     `yaml:"facebook,omitempty"`
	Instagram *GraphConfig     `yaml:"instagram,omitempty"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials.
type WhatsAppConfig struct {
	PhoneNumberID string `yaml:"phoneNumberId"`
	AccessToken   string `yaml:"accessToken"`
}

// TwilioConfig holds shared Twilio credentials for the SMS and
// WhatsApp-over-Twilio adapters.
type TwilioConfig struct {
	AccountSID   string `yaml:"accountSid"`
	AuthToken    string `yaml:"authToken"`
	SMSFrom      string `yaml:"smsFrom,omitempty"`
	WhatsAppFrom string `yaml:"whatsappFrom,omitempty"`
}

// GraphConfig holds Meta Graph API credentials for a page or Instagram
// professional account.
type GraphConfig struct {
	PageID      string `yaml:"pageId"`
	AccessToken string `yaml:"accessToken"`
}

// FallbackConfig controls provider selection for the WhatsApp logical
// channel, which has two interchangeable backends.
type FallbackConfig struct {
	// DefaultProvider applies to tenants without stored settings.
	DefaultProvider string `yaml:"defaultProvider,omitempty"` // "cloud_api" | "twilio"
}

// Defaults returns a Config with default values applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Health.CheckIntervalMS == 0 {
		cfg.Health.CheckIntervalMS = 60000
	}
	if cfg.Health.UnhealthyThreshold == 0 {
		cfg.Health.UnhealthyThreshold = 3
	}
	if cfg.Fallback.DefaultProvider == "" {
		cfg.Fallback.DefaultProvider = "cloud_api"
	}
}
