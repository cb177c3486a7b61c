package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	DefaultVersion    = "1.0"
	DefaultExecutable = "python3"
	DefaultWorkDir    = "../backend"
	DefaultPort       = 8765
	DefaultTitle      = "Messages Exporter"
)

// DefaultArgs are the interpreter arguments that start the backend module.
var DefaultArgs = []string{"-m", "app.main"}

// Config is the exportshell configuration as read from exportshell.yml.
type Config struct {
	Version string        `yaml:"version,omitempty" json:"version,omitempty" toml:"version,omitempty"`
	Backend BackendConfig `yaml:"backend,omitempty" json:"backend,omitempty" toml:"backend,omitempty"`
	Window  WindowConfig  `yaml:"window,omitempty" json:"window,omitempty" toml:"window,omitempty"`
	IPC     IPCConfig     `yaml:"ipc,omitempty" json:"ipc,omitempty" toml:"ipc,omitempty"`

	// Extensions captures all other top-level keys (logging, ...).
	Extensions map[string]interface{} `yaml:",inline" json:"-" toml:"-"`

	// Sources lists the files that contributed to this config, in merge order.
	Sources []string `yaml:"-" json:"-" toml:"-"`
}

// BackendConfig describes how the backend service is launched.
type BackendConfig struct {
	Executable string   `yaml:"executable,omitempty" json:"executable,omitempty" toml:"executable,omitempty" jsonschema:"description=Interpreter used to start the backend (IMEXPORT_BACKEND_PYTHON overrides)"`
	Args       []string `yaml:"args,omitempty" json:"args,omitempty" toml:"args,omitempty" jsonschema:"description=Arguments passed to the interpreter"`
	WorkDir    string   `yaml:"work_dir,omitempty" json:"work_dir,omitempty" toml:"work_dir,omitempty" jsonschema:"description=Working directory of the backend process"`
	Port       int      `yaml:"port,omitempty" json:"port,omitempty" toml:"port,omitempty" jsonschema:"minimum=1,maximum=65535,description=Loopback port the backend binds"`
	InheritEnv *bool    `yaml:"inherit_env,omitempty" json:"inherit_env,omitempty" toml:"inherit_env,omitempty" jsonschema:"description=Pass the shell's environment through to the backend"`
}

// WindowConfig configures the UI window.
type WindowConfig struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty" toml:"title,omitempty" jsonschema:"description=Window title set once the backend is running"`
}

// IPCConfig configures the local session query socket.
type IPCConfig struct {
	Socket string `yaml:"socket,omitempty" json:"socket,omitempty" toml:"socket,omitempty" jsonschema:"description=Unix socket path for session queries (default: runtime dir)"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Backend.Executable == "" {
		c.Backend.Executable = DefaultExecutable
	}
	if len(c.Backend.Args) == 0 {
		c.Backend.Args = append([]string(nil), DefaultArgs...)
	}
	if c.Backend.WorkDir == "" {
		c.Backend.WorkDir = DefaultWorkDir
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = DefaultPort
	}
	if c.Backend.InheritEnv == nil {
		inherit := true
		c.Backend.InheritEnv = &inherit
	}
	if c.Window.Title == "" {
		c.Window.Title = DefaultTitle
	}
}

// InheritsEnv reports whether the backend inherits the shell's environment.
func (b BackendConfig) InheritsEnv() bool {
	return b.InheritEnv == nil || *b.InheritEnv
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded exportshell.yml into the provided target struct. The target must be
// a pointer. A missing key leaves the target untouched.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
