package config

// mergeConfigs merges override configuration into base. Zero values in
// override leave the base value in place.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.Backend = mergeBackend(base.Backend, override.Backend)

	if override.Window.Title != "" {
		result.Window.Title = override.Window.Title
	}
	if override.IPC.Socket != "" {
		result.IPC.Socket = override.IPC.Socket
	}

	result.Extensions = mergeExtensions(base.Extensions, override.Extensions)
	result.Sources = append(append([]string(nil), base.Sources...), override.Sources...)

	return &result
}

func mergeBackend(base, override BackendConfig) BackendConfig {
	result := base

	if override.Executable != "" {
		result.Executable = override.Executable
	}
	if len(override.Args) > 0 {
		result.Args = append([]string(nil), override.Args...)
	}
	if override.WorkDir != "" {
		result.WorkDir = override.WorkDir
	}
	if override.Port != 0 {
		result.Port = override.Port
	}
	if override.InheritEnv != nil {
		inherit := *override.InheritEnv
		result.InheritEnv = &inherit
	}

	return result
}

// mergeExtensions merges extension maps one level deep: when both sides
// hold a map under the same key, their entries are combined.
func mergeExtensions(base, override map[string]interface{}) map[string]interface{} {
	if base == nil && override == nil {
		return nil
	}

	result := make(map[string]interface{}, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}

	for key, value := range override {
		baseMap, baseOk := result[key].(map[string]interface{})
		overrideMap, overrideOk := value.(map[string]interface{})
		if !baseOk || !overrideOk {
			result[key] = value
			continue
		}

		merged := make(map[string]interface{}, len(baseMap)+len(overrideMap))
		for k, v := range baseMap {
			merged[k] = v
		}
		for k, v := range overrideMap {
			merged[k] = v
		}
		result[key] = merged
	}

	return result
}
