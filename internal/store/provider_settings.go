package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soyeahso/switchboard/internal/domain"
)

// ProviderSettingsStore persists per-tenant provider choices for
// multi-provider channels.
type ProviderSettingsStore struct {
	db *DB
}

// NewProviderSettingsStore creates a settings store using the given database.
func NewProviderSettingsStore(db *DB) *ProviderSettingsStore {
	return &ProviderSettingsStore{db: db}
}

// Get loads the settings for a tenant and channel. The second return value
// reports whether any settings exist.
func (s *ProviderSettingsStore) Get(ctx context.Context, tenantID string, channel domain.ChannelType) (domain.ProviderSettings, bool, error) {
	var (
		ps        domain.ProviderSettings
		fallback  int
		updatedAt string
	)
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT tenant_id, channel_type, active_provider, fallback_enabled,
		        fallback_provider, prefer_templates_from, updated_at
		 FROM provider_settings WHERE tenant_id = ? AND channel_type = ?`,
		tenantID, string(channel),
	).Scan(&ps.TenantID, &ps.ChannelType, &ps.ActiveProvider, &fallback,
		&ps.FallbackProvider, &ps.PreferTemplatesFrom, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.ProviderSettings{}, false, nil
	}
	if err != nil {
		return domain.ProviderSettings{}, false, fmt.Errorf("loading provider settings: %w", err)
	}
	ps.FallbackEnabled = fallback != 0
	if t, perr := time.Parse("2006-01-02 15:04:05", updatedAt); perr == nil {
		ps.UpdatedAt = t
	}
	return ps, true, nil
}

// Put inserts or replaces the settings for a tenant and channel.
func (s *ProviderSettingsStore) Put(ctx context.Context, ps domain.ProviderSettings) error {
	fallback := 0
	if ps.FallbackEnabled {
		fallback = 1
	}
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO provider_settings
		   (tenant_id, channel_type, active_provider, fallback_enabled,
		    fallback_provider, prefer_templates_from, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (tenant_id, channel_type) DO UPDATE SET
		   active_provider = excluded.active_provider,
		   fallback_enabled = excluded.fallback_enabled,
		   fallback_provider = excluded.fallback_provider,
		   prefer_templates_from = excluded.prefer_templates_from,
		   updated_at = datetime('now')`,
		ps.TenantID, string(ps.ChannelType), ps.ActiveProvider, fallback,
		ps.FallbackProvider, ps.PreferTemplatesFrom)
	if err != nil {
		return fmt.Errorf("saving provider settings: %w", err)
	}
	return nil
}

// Delete removes the settings for a tenant and channel.
func (s *ProviderSettingsStore) Delete(ctx context.Context, tenantID string, channel domain.ChannelType) error {
	_, err := s.db.sql.ExecContext(ctx,
		"DELETE FROM provider_settings WHERE tenant_id = ? AND channel_type = ?",
		tenantID, string(channel))
	if err != nil {
		return fmt.Errorf("deleting provider settings: %w", err)
	}
	return nil
}
