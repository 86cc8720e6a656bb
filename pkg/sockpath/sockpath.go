// Package sockpath provides the default Unix socket path for lorekeepd, so
// the daemon and its local clients agree without configuration.
package sockpath

import (
	"os"
	"path/filepath"
)

// DefaultSocketPath prefers $XDG_RUNTIME_DIR/lorekeep/lorekeepd.sock and
// falls back to ~/.config/lorekeep/lorekeepd.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "lorekeep", "lorekeepd.sock")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lorekeep", "lorekeepd.sock")
}
