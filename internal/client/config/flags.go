package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig    = "config"
	FlagAddr      = "addr"
	FlagDB        = "db"
	FlagTimeout   = "timeout"
	FlagModel     = "model"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// RegisterFlags adds the client settings to fs. Defaults shown in help are
// the built-in ones; they only apply when no other layer sets a value.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or TOML config file")
	fs.StringP(FlagAddr, "a", d.ServerURL, "base URL of the chat server")
	fs.String(FlagDB, d.DatabasePath, "path to the local state database")
	fs.DurationP(FlagTimeout, "t", d.RequestTimeout, "timeout for a single server request")
	fs.StringP(FlagModel, "m", d.Model, "model to answer with (server default when empty)")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text, json, zap")
}

// parseFlags copies the flags the user explicitly set into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{FlagAddr, &cfg.ServerURL},
		{FlagDB, &cfg.DatabasePath},
		{FlagModel, &cfg.Model},
		{FlagLogLevel, &cfg.LogLevel},
		{FlagLogFormat, &cfg.LogFormat},
	}
	for _, s := range strs {
		if !fs.Changed(s.name) {
			continue
		}
		v, err := fs.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = v
	}

	if fs.Changed(FlagTimeout) {
		d, err := fs.GetDuration(FlagTimeout)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
	}
	return nil
}
