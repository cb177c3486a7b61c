package launcher

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by the launcher.
const (
	// EnvExecutable overrides the backend interpreter.
	EnvExecutable = "IMEXPORT_BACKEND_PYTHON"
	// EnvDBPath is forwarded to the backend verbatim when set.
	EnvDBPath = "IMESSAGE_DB_PATH"
)

// Environment variables injected into the backend.
const (
	EnvToken    = "APP_API_TOKEN"
	EnvBindHost = "APP_BIND_HOST"
	EnvBindPort = "APP_BIND_PORT"
)

// managedKeys are stripped from the inherited environment so the child only
// ever sees the values the launcher injects.
var managedKeys = map[string]bool{
	EnvToken:    true,
	EnvBindHost: true,
	EnvBindPort: true,
	EnvDBPath:   true,
}

// minimalKeys survive when the inherited environment is restricted.
var minimalKeys = map[string]bool{
	"PATH":       true,
	"HOME":       true,
	"LANG":       true,
	"TMPDIR":     true,
	"SYSTEMROOT": true,
}

// childEnv builds the backend's environment from the parent's.
func childEnv(parent []string, inherit bool, credential, host string, port int) []string {
	env := make([]string, 0, len(parent)+4)
	var dbPath string
	var hasDBPath bool

	for _, kv := range parent {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key == EnvDBPath {
			dbPath, hasDBPath = value, true
		}
		if managedKeys[key] {
			continue
		}
		if !inherit && !minimalKeys[key] {
			continue
		}
		env = append(env, kv)
	}

	env = append(env,
		EnvToken+"="+credential,
		EnvBindHost+"="+host,
		EnvBindPort+"="+strconv.Itoa(port),
	)
	if hasDBPath {
		env = append(env, EnvDBPath+"="+dbPath)
	}
	return env
}

// ResolveExecutable picks the backend interpreter: the environment override
// wins, then the configured value, then DefaultExecutable.
func ResolveExecutable(configured string, getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvExecutable); v != "" {
		return v
	}
	if configured != "" {
		return configured
	}
	return DefaultExecutable
}
