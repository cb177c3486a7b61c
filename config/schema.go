package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the core exportshell
// configuration. Extensions are not part of the reflected struct.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	type BaseConfig struct {
		Version string        `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
		Backend BackendConfig `yaml:"backend,omitempty" jsonschema:"description=Backend service launch settings"`
		Window  WindowConfig  `yaml:"window,omitempty" jsonschema:"description=UI window settings"`
		IPC     IPCConfig     `yaml:"ipc,omitempty" jsonschema:"description=Local session query socket"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "exportshell Configuration"
	schema.Description = "Schema for core exportshell.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
