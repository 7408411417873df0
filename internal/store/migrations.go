package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create provider settings",
		SQL: `
			CREATE TABLE provider_settings (
				tenant_id             TEXT NOT NULL,
				channel_type          TEXT NOT NULL,
				active_provider       TEXT NOT NULL,
				fallback_enabled      INTEGER NOT NULL DEFAULT 0,
				fallback_provider     TEXT NOT NULL DEFAULT '',
				prefer_templates_from TEXT NOT NULL DEFAULT '',
				updated_at            TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (tenant_id, channel_type)
			);

			CREATE INDEX idx_provider_settings_tenant ON provider_settings (tenant_id);
		`,
	},
}
