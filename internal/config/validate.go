package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	validLogLevels := []string{"silent", "error", "warn", "info", "debug"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	// Zero means "use the default" and is filled before validation runs.
	if cfg.Health.CheckIntervalMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "health.checkIntervalMs",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Health.CheckIntervalMS),
		})
	}
	if cfg.Health.UnhealthyThreshold < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "health.unhealthyThreshold",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Health.UnhealthyThreshold),
		})
	}

	validProviders := []string{"cloud_api", "twilio"}
	if cfg.Fallback.DefaultProvider != "" && !slices.Contains(validProviders, cfg.Fallback.DefaultProvider) {
		issues = append(issues, ValidationIssue{
			Path:    "fallback.defaultProvider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.Fallback.DefaultProvider),
		})
	}
	if cfg.Fallback.DefaultProvider == "twilio" && cfg.Channels.Twilio == nil {
		issues = append(issues, ValidationIssue{
			Path:    "fallback.defaultProvider",
			Message: "twilio selected as default provider but channels.twilio is not configured",
		})
	}

	if wa := cfg.Channels.WhatsApp; wa != nil {
		if wa.PhoneNumberID == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.whatsapp.phoneNumberId",
				Message: "phoneNumberId is required",
			})
		}
		if wa.AccessToken == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.whatsapp.accessToken",
				Message: "accessToken is required",
			})
		}
	}

	if tw := cfg.Channels.Twilio; tw != nil {
		if tw.AccountSID == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.twilio.accountSid",
				Message: "accountSid is required",
			})
		}
		if tw.AuthToken == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.twilio.authToken",
				Message: "authToken is required",
			})
		}
	}

	for path, section := range map[string]*GraphConfig{
		"channels.facebook":  cfg.Channels.Facebook,
		"channels.instagram": cfg.Channels.Instagram,
	} {
		if section == nil {
			continue
		}
		if section.PageID == "" {
			issues = append(issues, ValidationIssue{
				Path:    path + ".pageId",
				Message: "pageId is required",
			})
		}
		if section.AccessToken == "" {
			issues = append(issues, ValidationIssue{
				Path:    path + ".accessToken",
				Message: "accessToken is required",
			})
		}
	}

	return issues
}
