package config

import "os"

// Environment variables consulted by LoadConfig.
const (
	EnvServerURL = "GOPHCHAT_API_URL"
	EnvDB        = "GOPHCHAT_DB"
	EnvModel     = "GOPHCHAT_MODEL"
	EnvLogLevel  = "GOPHCHAT_LOG_LEVEL"
)

var envLookup = os.LookupEnv

// parseEnv overlays cfg with non-empty environment variables.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvServerURL, &cfg.ServerURL)
	set(EnvDB, &cfg.DatabasePath)
	set(EnvModel, &cfg.Model)
	set(EnvLogLevel, &cfg.LogLevel)
}
