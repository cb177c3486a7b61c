package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/grovetools/exportshell/schema"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in each directory while walking up.
var configNames = []string{
	"exportshell.yml",
	"exportshell.yaml",
	"exportshell.toml",
	".exportshell.yml",
	".exportshell.yaml",
}

var overrideNames = []string{
	"exportshell.override.yml",
	"exportshell.override.yaml",
	".exportshell.override.yml",
}

// IsConfigFileName reports whether base is a name the loader reads as a
// project, global or override layer.
func IsConfigFileName(base string) bool {
	for _, names := range [][]string{configNames, overrideNames} {
		for _, name := range names {
			if base == name {
				return true
			}
		}
	}
	return false
}

// Load reads and parses a single configuration file. No layering is applied.
func Load(path string) (*Config, error) {
	data, err := readLayer(path)
	if err != nil {
		return nil, err
	}

	cfg, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Sources = []string{path}

	return finalize(cfg)
}

// LoadFromBytes parses YAML configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := decode("", data)
	if err != nil {
		return nil, err
	}
	return finalize(cfg)
}

// LoadDefault finds and loads the configuration with hierarchical merging
// starting at the current working directory:
// 1. Global config (~/.config/exportshell/exportshell.yml) - base layer
// 2. Project config (exportshell.yml) - overrides global
// 3. Local override (exportshell.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory.
// No layer is required; with no files at all the defaults are returned.
func LoadFrom(startDir string) (*Config, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return LoadFromWithLogger(startDir, logger)
}

// LoadFromWithLogger is LoadFrom with a caller-supplied logger for layer diagnostics.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	final := &Config{}

	// 1. Global layer (optional, a broken file is skipped)
	if globalPath := paths.GlobalConfigPath(); globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			global, err := loadLayer(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
			} else {
				final = mergeConfigs(final, global)
			}
		}
	}

	// 2. Project layer (optional, but a broken file is an error)
	projectPath, err := FindConfigFile(startDir)
	if err != nil && !errors.Is(err, errors.ErrCodeConfigNotFound) {
		return nil, err
	}
	if projectPath != "" && projectPath != paths.GlobalConfigPath() {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		project, err := loadLayer(projectPath)
		if err != nil {
			return nil, err
		}
		final = mergeConfigs(final, project)

		// 3. Override layers next to the project file
		projectDir := filepath.Dir(projectPath)
		for _, name := range overrideNames {
			overridePath := filepath.Join(projectDir, name)
			if _, err := os.Stat(overridePath); err != nil {
				continue
			}
			logger.WithField("path", overridePath).Debug("Loading local override configuration")
			override, err := loadLayer(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}
			final = mergeConfigs(final, override)
		}
	}

	cfg, err := finalize(final)
	if err != nil {
		return nil, err
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Merged configuration:\n%s", string(data))
		}
	}

	return cfg, nil
}

// FindConfigFile searches for an exportshell configuration file from startDir
// up to the filesystem root, then falls back to the global config path.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if globalPath := paths.GlobalConfigPath(); globalPath != "" {
		if info, err := os.Stat(globalPath); err == nil && !info.IsDir() {
			return globalPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// loadLayer reads and decodes one file without defaults or validation.
func loadLayer(path string) (*Config, error) {
	data, err := readLayer(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Sources = []string{path}
	return cfg, nil
}

func readLayer(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return data, nil
}

// coreSections are the top-level keys governed by the embedded schema. Every
// other top-level key is an extension section, validated by its consumer.
var coreSections = []string{"version", "backend", "window", "ipc"}

var compiledSchema = sync.OnceValues(schema.NewValidator)

// decode expands environment variables and parses data as YAML, or as TOML
// when path ends in .toml. The raw document's core sections are checked
// against the schema before the typed decode, so unknown keys are reported
// instead of being dropped.
func decode(path string, data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))
	format := "YAML"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "TOML"
	}

	var raw map[string]interface{}
	var err error
	if format == "TOML" {
		err = toml.Unmarshal(expanded, &raw)
	} else {
		err = yaml.Unmarshal(expanded, &raw)
	}
	if err != nil {
		return nil, withPath(errors.Wrap(err, errors.ErrCodeConfigInvalid,
			"failed to parse "+format+" configuration"), path)
	}

	if err := validateSections(raw); err != nil {
		return nil, withPath(errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed"), path)
	}

	// TOML goes through YAML so both formats share one set of struct tags
	// and the inline extensions map.
	if format == "TOML" {
		if expanded, err = yaml.Marshal(raw); err != nil {
			return nil, withPath(errors.Wrap(err, errors.ErrCodeConfigInvalid,
				"failed to normalize TOML configuration"), path)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, withPath(errors.Wrap(err, errors.ErrCodeConfigInvalid,
			"failed to parse "+format+" configuration"), path)
	}
	return &cfg, nil
}

func validateSections(raw map[string]interface{}) error {
	core := make(map[string]interface{}, len(coreSections))
	for _, key := range coreSections {
		if value, ok := raw[key]; ok {
			core[key] = value
		}
	}

	validator, err := compiledSchema()
	if err != nil {
		return err
	}
	return validator.Validate(core)
}

func withPath(err *errors.ShellError, path string) *errors.ShellError {
	if path != "" {
		return err.WithDetail("path", path)
	}
	return err
}

// finalize applies defaults and runs semantic validation on the merged
// configuration.
func finalize(cfg *Config) (*Config, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// ${VAR:-default}
		varName, defaultValue, _ := strings.Cut(varName, ":-")

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
