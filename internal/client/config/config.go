package config

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/filex"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/spf13/pflag"
)

const appName = "gophchat"

// Config holds runtime settings for the gophchat client.
//
// Fields:
//   - ServerURL: base URL of the chat backend.
//   - DatabasePath: SQLite file holding the access credential.
//   - RequestTimeout: upper bound for a single backend request.
//   - Model: model_name sent with chat requests; empty means server default.
//   - LogLevel, LogFormat: see logging.New.
type Config struct {
	ServerURL      string
	DatabasePath   string
	RequestTimeout time.Duration
	Model          string
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.DatabasePath = filepath.Join(filex.UserDir(appName), "client.db")
	c.RequestTimeout = 2 * time.Minute
	c.Model = ""
	c.LogLevel = "info"
	c.LogFormat = logging.FormatText
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: expected http(s)://host[:port]", c.ServerURL)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if _, err := logging.New(c.LogFormat, c.LogLevel, io.Discard); err != nil {
		return err
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file named by --config, the environment and the flags the user
// actually set. Later sources take precedence over earlier ones.
//
// fs must have been prepared with RegisterFlags and parsed. A nil fs skips
// the file and flag layers.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if fs != nil {
		path, err := fs.GetString(FlagConfig)
		if err != nil {
			return nil, err
		}
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	parseEnv(cfg, envLookup)

	if fs != nil {
		if err := parseFlags(cfg, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
