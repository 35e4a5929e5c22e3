// Package config loads runtime configuration for the gophchat client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c/--config. Files ending in .toml
//     are TOML, anything else is JSON.
//  3. Environment: GOPHCHAT_API_URL, GOPHCHAT_DB, GOPHCHAT_MODEL,
//     GOPHCHAT_LOG_LEVEL.
//  4. Command-line flags the user explicitly set (see RegisterFlags).
//
// Supported flags
//
//	-a, --addr string         base URL of the chat server
//	    --db string           path to the local state database
//	-t, --timeout duration    timeout for a single server request
//	-m, --model string        model to answer with
//	    --log-level string    debug, info, warn, error
//	    --log-format string   text, json, zap
//
// # File schema
//
// The timeout accepts a Go duration string ("30s") or, in JSON, integer
// nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "database_path": "/home/me/.config/gophchat/client.db",
//	  "request_timeout": "2m",
//	  "model": "gpt-4o-mini",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The same keys are used in TOML.
package config
