// Package filex contains small filesystem helpers for locating and creating
// per-user client state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserDir returns <user config dir>/<app>, honouring XDG_CONFIG_HOME.
// Falls back to ./.<app> when no home directory can be determined.
func UserDir(app string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, app)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + app
	}
	return filepath.Join(dir, app)
}

// EnsureParentDir creates the directory that will hold path, with owner-only
// permissions.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
