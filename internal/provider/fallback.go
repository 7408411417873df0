// Package provider resolves which concrete adapter handles traffic for a
// logical channel with interchangeable backends, per tenant, and fails over
// to a configured backup when the active provider is unhealthy.
package provider

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/logging"
)

// Factory constructs concrete adapters for a tenant. Construction fails when
// the tenant has no credentials on file for the provider.
type Factory interface {
	Adapter(ctx context.Context, tenantID, provider string) (domain.ChannelAdapter, error)
	Providers() []string
}

// SettingsStore persists per-tenant provider settings.
// *store.ProviderSettingsStore implements it.
type SettingsStore interface {
	Get(ctx context.Context, tenantID string, channel domain.ChannelType) (domain.ProviderSettings, bool, error)
	Put(ctx context.Context, ps domain.ProviderSettings) error
}

// SettingsPatch updates a subset of a tenant's provider settings. Nil fields
// are left unchanged.
type SettingsPatch struct {
	ActiveProvider      *string
	FallbackEnabled     *bool
	FallbackProvider    *string
	PreferTemplatesFrom *string
}

// Resolution is the outcome of resolving a tenant's adapter.
type Resolution struct {
	Adapter       domain.ChannelAdapter
	Provider      string
	UsingFallback bool
	// TemplatesFrom names the provider whose message templates callers
	// should render with.
	TemplatesFrom string
}

// ProviderHealth pairs a candidate provider with its probe outcome.
type ProviderHealth struct {
	Provider     string              `json:"provider"`
	Active       bool                `json:"active"`
	Health       domain.HealthResult `json:"health"`
	ConstructErr string              `json:"constructErr,omitempty"`
}

// TenantProviders combines a tenant's settings with, per known provider,
// whether the factory can construct it (credentials on file).
type TenantProviders struct {
	Settings  domain.ProviderSettings `json:"settings"`
	Available map[string]bool         `json:"available"`
}

// Fallback decides which concrete provider serves a multi-provider channel
// for each tenant.
type Fallback struct {
	channel         domain.ChannelType
	defaultProvider string
	settings        SettingsStore
	factory         Factory
	log             *logging.Logger
}

// NewFallback creates a fallback service for one logical channel. Tenants
// without stored settings use defaultProvider with fallback disabled.
func NewFallback(channel domain.ChannelType, defaultProvider string, settings SettingsStore, factory Factory, log *logging.Logger) *Fallback {
	return &Fallback{
		channel:         channel,
		defaultProvider: defaultProvider,
		settings:        settings,
		factory:         factory,
		log:             log.Sub("fallback"),
	}
}

// Settings returns the tenant's stored settings, or the hard-coded default
// when none exist.
func (f *Fallback) Settings(ctx context.Context, tenantID string) (domain.ProviderSettings, error) {
	ps, ok, err := f.settings.Get(ctx, tenantID, f.channel)
	if err != nil {
		return domain.ProviderSettings{}, err
	}
	if !ok {
		return domain.ProviderSettings{
			TenantID:       tenantID,
			ChannelType:    f.channel,
			ActiveProvider: f.defaultProvider,
		}, nil
	}
	return ps, nil
}

// ActiveProvider returns the provider currently configured to handle the
// tenant's traffic.
func (f *Fallback) ActiveProvider(ctx context.Context, tenantID string) (string, error) {
	ps, err := f.Settings(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return ps.ActiveProvider, nil
}

// SetActiveProvider persists the tenant's provider choice.
func (f *Fallback) SetActiveProvider(ctx context.Context, tenantID, provider string) error {
	active := provider
	return f.update(ctx, tenantID, SettingsPatch{ActiveProvider: &active})
}

// UpdateSettings applies a partial update to the tenant's settings and
// persists the result.
func (f *Fallback) UpdateSettings(ctx context.Context, tenantID string, patch SettingsPatch) (domain.ProviderSettings, error) {
	if err := f.update(ctx, tenantID, patch); err != nil {
		return domain.ProviderSettings{}, err
	}
	return f.Settings(ctx, tenantID)
}

func (f *Fallback) update(ctx context.Context, tenantID string, patch SettingsPatch) error {
	ps, err := f.Settings(ctx, tenantID)
	if err != nil {
		return err
	}
	if patch.ActiveProvider != nil {
		ps.ActiveProvider = *patch.ActiveProvider
	}
	if patch.FallbackEnabled != nil {
		ps.FallbackEnabled = *patch.FallbackEnabled
	}
	if patch.FallbackProvider != nil {
		ps.FallbackProvider = *patch.FallbackProvider
	}
	if patch.PreferTemplatesFrom != nil {
		ps.PreferTemplatesFrom = *patch.PreferTemplatesFrom
	}
	return f.settings.Put(ctx, ps)
}

// SettingsWithProviders returns the tenant's settings plus which known
// providers the factory can construct for them.
func (f *Fallback) SettingsWithProviders(ctx context.Context, tenantID string) (TenantProviders, error) {
	ps, err := f.Settings(ctx, tenantID)
	if err != nil {
		return TenantProviders{}, err
	}
	available := make(map[string]bool)
	for _, name := range f.factory.Providers() {
		_, cerr := f.factory.Adapter(ctx, tenantID, name)
		available[name] = cerr == nil
	}
	return TenantProviders{Settings: ps, Available: available}, nil
}

// CheckProviderHealth probes the tenant's active and fallback providers.
func (f *Fallback) CheckProviderHealth(ctx context.Context, tenantID string) ([]ProviderHealth, error) {
	ps, err := f.Settings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	candidates := []struct {
		name   string
		active bool
	}{{ps.ActiveProvider, true}}
	if ps.FallbackProvider != "" && ps.FallbackProvider != ps.ActiveProvider {
		candidates = append(candidates, struct {
			name   string
			active bool
		}{ps.FallbackProvider, false})
	}

	out := make([]ProviderHealth, 0, len(candidates))
	for _, c := range candidates {
		ph := ProviderHealth{Provider: c.name, Active: c.active}
		adapter, cerr := f.factory.Adapter(ctx, tenantID, c.name)
		if cerr != nil {
			ph.ConstructErr = cerr.Error()
			ph.Health = domain.HealthResult{Healthy: false, LastError: cerr.Error()}
		} else {
			ph.Health = adapter.HealthCheck(ctx)
		}
		out = append(out, ph)
	}
	return out, nil
}

// AdapterWithFallback resolves the adapter that should handle the tenant's
// traffic right now. A healthy primary wins; an unhealthy primary with a
// healthy configured fallback yields the fallback. When both are unhealthy
// the primary is still returned so traffic degrades instead of stopping;
// only when the primary cannot even be constructed is the fallback used as a
// last resort before surfacing the error.
func (f *Fallback) AdapterWithFallback(ctx context.Context, tenantID string) (Resolution, error) {
	ps, err := f.Settings(ctx, tenantID)
	if err != nil {
		return Resolution{}, err
	}

	primary, primaryErr := f.factory.Adapter(ctx, tenantID, ps.ActiveProvider)
	if primaryErr == nil {
		if res := primary.HealthCheck(ctx); res.Healthy {
			return f.resolution(ps, primary, ps.ActiveProvider, false), nil
		}
		f.log.Warn().
			Str("tenant", tenantID).
			Str("provider", ps.ActiveProvider).
			Msg("active provider unhealthy")
	} else {
		f.log.Warn().
			Str("tenant", tenantID).
			Str("provider", ps.ActiveProvider).
			Err(primaryErr).
			Msg("active provider could not be constructed")
	}

	fallbackConfigured := ps.FallbackEnabled && ps.FallbackProvider != ""
	if fallbackConfigured {
		fb, fbErr := f.factory.Adapter(ctx, tenantID, ps.FallbackProvider)
		if fbErr == nil {
			if res := fb.HealthCheck(ctx); res.Healthy {
				f.log.Info().
					Str("tenant", tenantID).
					Str("provider", ps.FallbackProvider).
					Msg("failing over to fallback provider")
				return f.resolution(ps, fb, ps.FallbackProvider, true), nil
			}
			// Primary gone entirely: an unhealthy fallback still beats
			// nothing.
			if primaryErr != nil {
				f.log.Warn().
					Str("tenant", tenantID).
					Str("provider", ps.FallbackProvider).
					Msg("using unhealthy fallback, primary unavailable")
				return f.resolution(ps, fb, ps.FallbackProvider, true), nil
			}
		} else if primaryErr != nil {
			return Resolution{}, fmt.Errorf("no usable provider for tenant %s: primary: %v, fallback: %v", tenantID, primaryErr, fbErr)
		}
	}

	if primaryErr != nil {
		return Resolution{}, fmt.Errorf("no usable provider for tenant %s: %w", tenantID, primaryErr)
	}

	// Both candidates unhealthy (or no fallback configured): prefer degraded
	// operation over total failure.
	f.log.Warn().
		Str("tenant", tenantID).
		Str("provider", ps.ActiveProvider).
		Msg("no healthy provider, returning unhealthy primary")
	return f.resolution(ps, primary, ps.ActiveProvider, false), nil
}

func (f *Fallback) resolution(ps domain.ProviderSettings, adapter domain.ChannelAdapter, provider string, usingFallback bool) Resolution {
	templates := ps.PreferTemplatesFrom
	if templates == "" {
		templates = provider
	}
	return Resolution{
		Adapter:       adapter,
		Provider:      provider,
		UsingFallback: usingFallback,
		TemplatesFrom: templates,
	}
}
