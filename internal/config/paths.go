package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".switchboard"

// Paths holds resolved filesystem paths for switchboard data.
type Paths struct {
	Base   string // ~/.switchboard
	Config string // ~/.switchboard/config.yaml
	Data   string // ~/.switchboard/data
	Logs   string // ~/.switchboard/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If SWITCHBOARD_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("SWITCHBOARD_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// StorePath returns the configured settings database path, defaulting to
// data/switchboard.db under the base directory.
func (p Paths) StorePath(cfg *Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return filepath.Join(p.Data, "switchboard.db")
}
