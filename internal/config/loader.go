package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a problem loading or parsing the config file.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	if cfg.Channels.WhatsApp != nil {
		cfg.Channels.WhatsApp.AccessToken = expandEnvVars(cfg.Channels.WhatsApp.AccessToken)
	}
	if cfg.Channels.Twilio != nil {
		cfg.Channels.Twilio.AuthToken = expandEnvVars(cfg.Channels.Twilio.AuthToken)
	}
	if cfg.Channels.Facebook != nil {
		cfg.Channels.Facebook.AccessToken = expandEnvVars(cfg.Channels.Facebook.AccessToken)
	}
	if cfg.Channels.Instagram != nil {
		cfg.Channels.Instagram.AccessToken = expandEnvVars(cfg.Channels.Instagram.AccessToken)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyEnvOverrides reads SWITCHBOARD_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWITCHBOARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SWITCHBOARD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SWITCHBOARD_HEALTH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Health.CheckIntervalMS = ms
		}
	}
	if v := os.Getenv("SWITCHBOARD_DEFAULT_PROVIDER"); v != "" {
		cfg.Fallback.DefaultProvider = v
	}
}
