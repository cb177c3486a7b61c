// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// RequireUnix skips the test on platforms without unix sockets and signals.
func RequireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix only")
	}
}

// RequireCommand skips the test if name is not on PATH.
func RequireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

// IsolateHome points every exportshell directory at a fresh temp root and
// clears the backend interpreter override. It returns the root.
func IsolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.EnvHome, home)
	t.Setenv("IMEXPORT_BACKEND_PYTHON", "")
	return home
}

// ShortSocketPath returns a socket path in a fresh directory under the
// system temp dir. Unix socket paths are length-limited, and t.TempDir
// paths embed the test name.
func ShortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "es")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// DiscardLogger returns a logger entry that writes nowhere.
func DiscardLogger(component string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", component)
}
