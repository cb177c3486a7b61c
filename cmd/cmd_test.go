package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/grovetools/exportshell/config"
	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/internal/ipc"
	"github.com/grovetools/exportshell/internal/pidfile"
	"github.com/grovetools/exportshell/pkg/credential"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/grovetools/exportshell/pkg/process"
	"github.com/grovetools/exportshell/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellConfig returns a config that supervises executable with args in a
// temp work dir and serves on a short socket path.
func shellConfig(t *testing.T, executable string, args ...string) *config.Config {
	t.Helper()
	testutil.RequireUnix(t)
	testutil.IsolateHome(t)

	cfg := config.Default()
	cfg.Backend.Executable = executable
	cfg.Backend.Args = args
	cfg.Backend.WorkDir = t.TempDir()
	cfg.Backend.Port = 18766
	cfg.IPC.Socket = testutil.ShortSocketPath(t)
	return cfg
}

func waitForSession(t *testing.T, client *ipc.Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, err := client.Session(context.Background())
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRunShellServesSessionAndStopsOnCancel(t *testing.T) {
	cfg := shellConfig(t, "sleep", "60")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runShell(ctx, cfg, nil, testutil.DiscardLogger("cmd-test")) }()

	client := ipc.NewClient(cfg.IPC.Socket)
	waitForSession(t, client)

	desc, err := client.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:18766", desc.BaseURL)
	assert.True(t, credential.Valid(desc.Token))

	st, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Running", st.State)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.NotZero(t, st.BackendPID)

	running, pid, err := pidfile.IsRunning(paths.PidFilePath())
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runShell did not return after cancel")
	}

	_, err = os.Stat(paths.PidFilePath())
	assert.True(t, os.IsNotExist(err), "pidfile released")
	_, err = os.Stat(cfg.IPC.Socket)
	assert.True(t, os.IsNotExist(err), "socket removed")
	require.Eventually(t, func() bool {
		return !process.IsProcessAlive(st.BackendPID)
	}, 5*time.Second, 20*time.Millisecond, "backend terminated")
}

func TestRunShellReturnsWhenBackendExits(t *testing.T) {
	cfg := shellConfig(t, "true")

	done := make(chan error, 1)
	go func() { done <- runShell(context.Background(), cfg, nil, testutil.DiscardLogger("cmd-test")) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runShell did not notice the backend exit")
	}
}

func TestRunShellSpawnFailure(t *testing.T) {
	cfg := shellConfig(t, "exportshell-no-such-interpreter")

	err := runShell(context.Background(), cfg, nil, testutil.DiscardLogger("cmd-test"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSpawnFailed))

	_, statErr := os.Stat(paths.PidFilePath())
	assert.True(t, os.IsNotExist(statErr), "pidfile released after failed startup")
}

func TestRunShellRefusesSecondInstance(t *testing.T) {
	cfg := shellConfig(t, "sleep", "60")

	// The test runner's parent is alive and is not us.
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.PidFilePath()), 0o700))
	require.NoError(t, os.WriteFile(paths.PidFilePath(), []byte(strconv.Itoa(os.Getppid())), 0o644))

	err := runShell(context.Background(), cfg, nil, testutil.DiscardLogger("cmd-test"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAlreadyRunning))
}

func TestRunShellWarnsOnConfigChange(t *testing.T) {
	base := shellConfig(t, "sleep", "60")
	path := filepath.Join(t.TempDir(), "exportshell.yml")
	write := func(port int) {
		testutil.WriteFile(t, path, fmt.Sprintf(
			"backend:\n  executable: sleep\n  args: [\"60\"]\n  work_dir: %s\n  port: %d\nipc:\n  socket: %s\n",
			base.Backend.WorkDir, port, base.IPC.Socket))
	}
	write(18767)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	reload := func() (*config.Config, error) { return config.Load(path) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runShell(ctx, cfg, reload, logger.WithField("component", "cmd-test")) }()
	waitForSession(t, ipc.NewClient(cfg.IPC.Socket))

	// Rewritten on each poll in case the first write lands before the watch is set up.
	require.Eventually(t, func() bool {
		write(18768)
		for _, e := range hook.AllEntries() {
			if e.Data["setting"] == "backend.port" {
				return true
			}
		}
		return false
	}, 10*time.Second, 250*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runShell did not return after cancel")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPathsJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.EnvHome, home)

	out, err := execute(t, "paths", "--json")
	require.NoError(t, err)

	var got PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, paths.SocketPath(), got.Socket)
	assert.Equal(t, paths.PidFilePath(), got.PidFile)
	assert.Equal(t, filepath.Join(home, "config"), got.ConfigDir)
}

func TestConfigShow(t *testing.T) {
	testutil.IsolateHome(t)
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "exportshell.yml"), "backend:\n  port: 9100\n")

	out, err := execute(t, "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+path)
	assert.Contains(t, out, "port: 9100")
	assert.Contains(t, out, "title: Messages Exporter")

	out, err = execute(t, "config", "show", "-c", path, "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "port = 9100")

	_, err = execute(t, "config", "show", "-c", path, "--format", "ini")
	assert.Error(t, err)
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"inherit_env"`)
}

func TestStatusWhenStopped(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())

	out, err := execute(t, "status")
	assert.True(t, errors.Is(err, errors.ErrCodeNotRunning))
	assert.Contains(t, out, "Stopped")
}

func TestStopWhenNotRunning(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())

	out, err := execute(t, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
}

func TestSessionWithoutShell(t *testing.T) {
	testutil.IsolateHome(t)
	cfgPath := testutil.WriteFile(t, filepath.Join(t.TempDir(), "exportshell.yml"),
		"ipc:\n  socket: "+testutil.ShortSocketPath(t)+"\n")

	_, err := execute(t, "session", "-c", cfgPath)
	assert.Error(t, err)
}

func TestSessionCheckReportsUnreachableBackend(t *testing.T) {
	cfg := shellConfig(t, "sleep", "60")
	cfg.Backend.Port = 18767
	cfgPath := testutil.WriteFile(t, filepath.Join(t.TempDir(), "exportshell.yml"),
		"ipc:\n  socket: "+cfg.IPC.Socket+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runShell(ctx, cfg, nil, testutil.DiscardLogger("cmd-test")) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitForSession(t, ipc.NewClient(cfg.IPC.Socket))

	out, err := execute(t, "session", "-c", cfgPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"base_url": "http://127.0.0.1:18767"`)
	assert.NotContains(t, out, `"health"`)

	_, err = execute(t, "session", "-c", cfgPath, "--check")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeBackendUnavailable))
	assert.NotContains(t, err.Error(), "Bearer")
}

func TestLogsTail(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	require.NoError(t, os.MkdirAll(paths.LogDir(), 0o700))

	older := filepath.Join(paths.LogDir(), "exportshell-2024-01-01.log")
	newer := filepath.Join(paths.LogDir(), "exportshell-2024-01-02.log")
	require.NoError(t, os.WriteFile(older, []byte("old\n"), 0o600))
	require.NoError(t, os.WriteFile(newer, []byte("one\ntwo\nthree\n"), 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	out, err := execute(t, "logs", "--tail", "2")
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", out)

	_, err = execute(t, "logs", "--component", "missing")
	assert.Error(t, err)
}
