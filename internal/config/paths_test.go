package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SWITCHBOARD_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("SWITCHBOARD_HOME", filepath.Join(t.TempDir(), "sb"))
	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestStorePath(t *testing.T) {
	t.Setenv("SWITCHBOARD_HOME", "/tmp/sb")
	p, err := ResolvePaths()
	require.NoError(t, err)

	cfg := Defaults()
	assert.Equal(t, filepath.Join(p.Data, "switchboard.db"), p.StorePath(&cfg))

	cfg.Store.Path = "/var/lib/switchboard.db"
	assert.Equal(t, "/var/lib/switchboard.db", p.StorePath(&cfg))
}
