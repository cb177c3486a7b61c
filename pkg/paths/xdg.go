// Package paths provides XDG-compliant path resolution for exportshell.
//
// Resolution order:
// 1. EXPORTSHELL_HOME (portable root) → $EXPORTSHELL_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/exportshell
// 3. Platform defaults → ~/.config/exportshell, ~/.local/state/exportshell
package paths

import (
	"os"
	"path/filepath"
)

const appName = "exportshell"

// EnvHome relocates every exportshell directory under a single root.
const EnvHome = "EXPORTSHELL_HOME"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the exportshell configuration directory.
// Used for the global exportshell.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	if os.Getenv(EnvHome) != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// StateDir returns the exportshell state directory.
// Used for the pid file and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv(EnvHome) != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory holding per-component log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the runtime directory for the ipc socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SocketPath returns the path to the shell's ipc socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), appName+".sock")
}

// PidFilePath returns the path to the shell's PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), appName+".pid")
}

// GlobalConfigPath returns the path of the user-wide config layer.
func GlobalConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, appName+".yml")
}

// EnsureDirs creates all exportshell directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
