package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetStderr(&buf)
	t.Cleanup(func() { SetStderr(prev) })
	return &buf
}

func TestNewLoggerCachesPerComponent(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())

	a := NewLogger("cache-test")
	b := NewLogger("cache-test")
	assert.Same(t, a, b)
	assert.Equal(t, "cache-test", a.Data["component"])
}

func TestNewWritesToStderrWhenAlways(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	buf := captureStderr(t)

	log := New("supervisor", Config{
		File:   FileSinkConfig{Disabled: true},
		Format: FormatConfig{StructuredToStderr: "always", DisableTimestamp: true},
	})
	log.WithField("pid", 42).Info("Backend started")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "supervisor")
	assert.Contains(t, out, "Backend started")
	assert.Contains(t, out, "pid=42")
}

func TestNewNeverWritesToStderr(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	buf := captureStderr(t)

	log := New("quiet", Config{
		File:   FileSinkConfig{Disabled: true},
		Format: FormatConfig{StructuredToStderr: "never"},
	})
	log.Error("nobody hears this")
	assert.Empty(t, buf.String())
}

func TestLevelFromEnvironment(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	t.Setenv(EnvLevel, "warn")

	log := New("leveled", Config{Level: "debug", File: FileSinkConfig{Disabled: true}})
	assert.Equal(t, logrus.WarnLevel, log.Logger.GetLevel())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())

	log := New("bad-level", Config{Level: "loud", File: FileSinkConfig{Disabled: true}})
	assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())
}

func TestCallerFromEnvironment(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	t.Setenv(EnvCaller, "true")

	log := New("caller", Config{File: FileSinkConfig{Disabled: true}})
	assert.True(t, log.Logger.ReportCaller)
}

func TestDefaultFileSink(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	captureStderr(t)

	log := New("filesink", Config{Format: FormatConfig{StructuredToStderr: "never"}})
	log.WithField("port", 8765).Info("Backend started")

	data, err := os.ReadFile(DefaultFilePath("filesink", time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Backend started")
	assert.Contains(t, string(data), "port=8765")
	assert.NotContains(t, string(data), "\x1b[", "file sink is never styled")
}

func TestJSONFileSink(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "out.log")

	log := New("jsonfile", Config{
		File:   FileSinkConfig{Path: path, Format: "json"},
		Format: FormatConfig{StructuredToStderr: "never"},
	})
	log.WithField("token", "deadbeef").Info("published")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "published", line["msg"])
	assert.Equal(t, "jsonfile", line["component"])
	assert.Equal(t, Redacted, line["token"])
}

func TestRedactHook(t *testing.T) {
	t.Setenv(paths.EnvHome, t.TempDir())
	buf := captureStderr(t)

	secret := strings.Repeat("ab", 32)
	log := New("redact", Config{
		File:   FileSinkConfig{Disabled: true},
		Format: FormatConfig{StructuredToStderr: "always"},
	})
	entry := log.WithFields(logrus.Fields{
		"token":      secret,
		"Credential": secret,
		"api_token":  secret,
		"port":       8765,
	})
	entry.Info("session published")

	out := buf.String()
	assert.NotContains(t, out, secret)
	assert.Contains(t, out, "token="+Redacted)
	assert.Contains(t, out, "port=8765")
	assert.Equal(t, secret, entry.Data["token"], "caller's fields are untouched")
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		data    logrus.Fields
		level   logrus.Level
		want    []string
		notWant []string
	}{
		{
			name:   "default",
			config: FormatConfig{},
			data:   logrus.Fields{"component": "lifecycle", "b": 2, "a": 1},
			level:  logrus.InfoLevel,
			want:   []string{"2024-01-02 03:04:05", "[INFO]", "[lifecycle]", "msg a=1 b=2"},
		},
		{
			name:    "no timestamp or component",
			config:  FormatConfig{DisableTimestamp: true, DisableComponent: true},
			data:    logrus.Fields{"component": "lifecycle"},
			level:   logrus.WarnLevel,
			want:    []string{"[WARN] msg"},
			notWant: []string{"2024", "lifecycle"},
		},
		{
			name:   "quotes values with spaces",
			config: FormatConfig{DisableTimestamp: true},
			data:   logrus.Fields{"dir": "/tmp/my backend"},
			level:  logrus.ErrorLevel,
			want:   []string{"[ERROR] msg dir=\"/tmp/my backend\""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &logrus.Entry{
				Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
				Level:   tt.level,
				Message: "msg",
				Data:    tt.data,
			}
			out, err := (&TextFormatter{Config: tt.config, Plain: true}).Format(entry)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(out), w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, string(out), nw)
			}
		})
	}
}

func TestShouldLogToStderr(t *testing.T) {
	assert.True(t, shouldLogToStderr("always", logrus.InfoLevel, true))
	assert.False(t, shouldLogToStderr("never", logrus.DebugLevel, false))
	assert.False(t, shouldLogToStderr("auto", logrus.InfoLevel, true))
	assert.True(t, shouldLogToStderr("auto", logrus.DebugLevel, true))
	assert.True(t, shouldLogToStderr("", logrus.InfoLevel, false))
}

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)
	p.Field("base_url", "http://127.0.0.1:8765")
	p.Path("socket", "/run/exportshell.sock")

	assert.Contains(t, buf.String(), "http://127.0.0.1:8765")
	assert.Contains(t, buf.String(), "/run/exportshell.sock")
}
