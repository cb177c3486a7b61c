package logging

const (
	// EnvLevel overrides the configured level.
	EnvLevel = "EXPORTSHELL_LOG_LEVEL"
	// EnvCaller enables caller reporting when set to "true".
	EnvCaller = "EXPORTSHELL_LOG_CALLER"
)

// Config defines the `logging` section of exportshell.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// ReportCaller includes the file, line, and function name in the log output.
	ReportCaller bool `yaml:"report_caller"`

	File   FileSinkConfig `yaml:"file"`
	Format FormatConfig   `yaml:"format"`
}

// FileSinkConfig configures the file logging sink. The sink is on by default;
// Disabled turns it off and Path replaces the dated file under the log dir.
type FileSinkConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
	Format   string `yaml:"format,omitempty"` // "text" (default) or "json"
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// StructuredToStderr is "auto" (default), "always", or "never".
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
