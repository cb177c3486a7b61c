package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand replaces a leading "~" with the user's home directory. Other paths,
// relative ones included, are returned unchanged.
func Expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ResolveSocket returns the expanded configured socket path, or SocketPath
// when none is configured.
func ResolveSocket(configured string) string {
	if configured == "" {
		return SocketPath()
	}
	return Expand(configured)
}
