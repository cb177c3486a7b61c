package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/grovetools/exportshell/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromNoFilesUsesDefaults(t *testing.T) {
	testutil.IsolateHome(t)

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, "python3", cfg.Backend.Executable)
	assert.Equal(t, []string{"-m", "app.main"}, cfg.Backend.Args)
	assert.Equal(t, "../backend", cfg.Backend.WorkDir)
	assert.Equal(t, 8765, cfg.Backend.Port)
	assert.True(t, cfg.Backend.InheritsEnv())
	assert.Equal(t, "Messages Exporter", cfg.Window.Title)
	assert.Empty(t, cfg.IPC.Socket)
	assert.Empty(t, cfg.Sources)
}

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
backend:
  executable: /usr/bin/python3.12
  port: 9000
  inherit_env: false
window:
  title: Exporter (dev)
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/python3.12", cfg.Backend.Executable)
	assert.Equal(t, 9000, cfg.Backend.Port)
	assert.False(t, cfg.Backend.InheritsEnv())
	assert.Equal(t, "Exporter (dev)", cfg.Window.Title)
	assert.Contains(t, cfg.Extensions, "logging")
}

func TestLoadFromBytesRejectsSchemaViolation(t *testing.T) {
	_, err := LoadFromBytes([]byte("backend:\n  port: 70000\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	_, err = LoadFromBytes([]byte("backend:\n  unknown: true\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestUnknownCoreKeyIsRejected(t *testing.T) {
	_, err := LoadFromBytes([]byte("backend:\n  prot: 9000\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
	assert.Contains(t, err.Error(), "/backend")

	testutil.IsolateHome(t)
	project := t.TempDir()
	path := testutil.WriteFile(t, filepath.Join(project, "exportshell.toml"), "[window]\ntitel = \"typo\"\n")

	_, err = LoadFrom(project)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
	shellErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, path, shellErr.Details["path"])
}

func TestExtensionSectionsAreNotSchemaChecked(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("logging:\n  anything: [1, 2]\nmonitoring: true\n"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Extensions, "logging")
	assert.Contains(t, cfg.Extensions, "monitoring")
}

func TestLoadFromBytesSemanticValidation(t *testing.T) {
	_, err := LoadFromBytes([]byte("backend:\n  executable: \"python3; rm -rf /\"\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	_, err = LoadFromBytes([]byte("window:\n  title: \"bad\\u0007title\"\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPORTSHELL_TEST_PORT", "9100")

	cfg, err := LoadFromBytes([]byte(`
backend:
  port: ${EXPORTSHELL_TEST_PORT}
  work_dir: ${EXPORTSHELL_TEST_UNSET:-/srv/backend}
`))
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Backend.Port)
	assert.Equal(t, "/srv/backend", cfg.Backend.WorkDir)
}

func TestLoadFromLayering(t *testing.T) {
	testutil.IsolateHome(t)

	testutil.WriteFile(t, paths.GlobalConfigPath(), `
backend:
  executable: python3.11
  port: 9001
window:
  title: Global Title
logging:
  level: warn
  format:
    preset: simple
`)

	project := t.TempDir()
	testutil.WriteFile(t, filepath.Join(project, "exportshell.yml"), `
backend:
  port: 9002
logging:
  level: info
`)
	testutil.WriteFile(t, filepath.Join(project, "exportshell.override.yml"), `
window:
  title: Local Title
`)

	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadFrom(nested)
	require.NoError(t, err)

	assert.Equal(t, "python3.11", cfg.Backend.Executable, "global value kept")
	assert.Equal(t, 9002, cfg.Backend.Port, "project overrides global")
	assert.Equal(t, "Local Title", cfg.Window.Title, "override file wins")
	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, paths.GlobalConfigPath(), cfg.Sources[0])

	logging, ok := cfg.Extensions["logging"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "info", logging["level"])
	assert.NotNil(t, logging["format"], "nested extension keys merge across layers")
}

func TestLoadFromBrokenProjectIsError(t *testing.T) {
	testutil.IsolateHome(t)

	project := t.TempDir()
	testutil.WriteFile(t, filepath.Join(project, "exportshell.yml"), "backend: [unclosed\n")

	_, err := LoadFrom(project)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestLoadTOML(t *testing.T) {
	testutil.IsolateHome(t)

	project := t.TempDir()
	testutil.WriteFile(t, filepath.Join(project, "exportshell.toml"), `
version = "1.0"

[backend]
executable = "python3"
args = ["-m", "app.main", "--reload"]
port = 8800

[window]
title = "From TOML"

[logging]
level = "debug"
`)

	cfg, err := LoadFrom(project)
	require.NoError(t, err)
	assert.Equal(t, 8800, cfg.Backend.Port)
	assert.Equal(t, []string{"-m", "app.main", "--reload"}, cfg.Backend.Args)
	assert.Equal(t, "From TOML", cfg.Window.Title)

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
}

func TestFindConfigFileNotFound(t *testing.T) {
	testutil.IsolateHome(t)

	_, err := FindConfigFile(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestIsConfigFileName(t *testing.T) {
	assert.True(t, IsConfigFileName("exportshell.toml"))
	assert.True(t, IsConfigFileName(".exportshell.override.yml"))
	assert.False(t, IsConfigFileName("exportshell.yml.swp"))
	assert.False(t, IsConfigFileName("settings.yml"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestUnmarshalExtension(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
monitoring:
  enabled: true
  interval: 30
`))
	require.NoError(t, err)

	var mon struct {
		Enabled  bool `yaml:"enabled"`
		Interval int  `yaml:"interval"`
	}
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &mon))
	assert.True(t, mon.Enabled)
	assert.Equal(t, 30, mon.Interval)

	var missing struct{ Value string }
	require.NoError(t, cfg.UnmarshalExtension("absent", &missing))
	assert.Empty(t, missing.Value)
}

func TestMergeConfigsKeepsBaseOnZero(t *testing.T) {
	inherit := false
	base := &Config{Backend: BackendConfig{Executable: "python3", Port: 1, InheritEnv: &inherit}}
	merged := mergeConfigs(base, &Config{Backend: BackendConfig{Port: 2}})

	assert.Equal(t, "python3", merged.Backend.Executable)
	assert.Equal(t, 2, merged.Backend.Port)
	assert.False(t, merged.Backend.InheritsEnv())
	assert.Equal(t, 1, base.Backend.Port, "base is not mutated")
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"backend"`)
	assert.Contains(t, s, `"work_dir"`)
	assert.Contains(t, s, `"inherit_env"`)
	assert.NotContains(t, s, "Extensions")
}
