package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// fileConfig is a DTO used exclusively for config file decoding. It relies
// on timex.Duration so files can specify the timeout either as a string like
// "30s" or (JSON only) as integer nanoseconds.
type fileConfig struct {
	ServerURL      string         `json:"server_url" toml:"server_url"`
	DatabasePath   string         `json:"database_path" toml:"database_path"`
	RequestTimeout timex.Duration `json:"request_timeout" toml:"request_timeout"`
	Model          string         `json:"model" toml:"model"`
	LogLevel       string         `json:"log_level" toml:"log_level"`
	LogFormat      string         `json:"log_format" toml:"log_format"`
}

// parseFile overlays cfg with the values present in the file at path.
// Files ending in .toml are decoded as TOML, everything else as JSON.
// An empty path is a no-op.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	var fc fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	fc.apply(cfg)
	return nil
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
}
