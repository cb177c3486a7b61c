package command

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// shellMeta are characters that never belong in an executable name, a
// working directory or an environment key.
const shellMeta = ";|&$`<>\n"

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SafeBuilder validates the pieces of a long-running child command before
// handing them to an Executor.
//
// Unlike one-shot tool invocations, supervised children carry no timeout:
// their lifetime is bounded by the supervisor, not by a context deadline.
type SafeBuilder struct {
	validators map[string]func(string) error
	executor   Executor
}

// NewSafeBuilder creates a new SafeBuilder backed by OSExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(OSExecutor)
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		validators: makeDefaultValidators(),
		executor:   exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"executable": validateExecutable,
		"workDir":    validateWorkDir,
		"envKey":     validateEnvKey,
	}
}

// validateExecutable accepts a bare program name or a path to one.
func validateExecutable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("executable cannot be empty")
	}
	if strings.ContainsAny(name, shellMeta) {
		return fmt.Errorf("executable contains invalid characters: %q", name)
	}
	return nil
}

// validateWorkDir allows relative paths, including ones that climb out of
// the current directory, but no shell metacharacters.
func validateWorkDir(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsAny(path, shellMeta) {
		return fmt.Errorf("working directory contains invalid characters: %q", path)
	}
	return nil
}

func validateEnvKey(key string) error {
	if !envKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid environment variable name: %q", key)
	}
	return nil
}

// Spec describes a child process to build.
type Spec struct {
	Executable string
	Args       []string
	Dir        string
	Env        []string
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Build validates spec and returns an unstarted exec.Cmd with its standard
// streams left nil, which os/exec connects to the null device.
func (sb *SafeBuilder) Build(spec Spec) (*exec.Cmd, error) {
	if err := sb.Validate("executable", spec.Executable); err != nil {
		return nil, err
	}
	if err := sb.Validate("workDir", spec.Dir); err != nil {
		return nil, err
	}
	for _, kv := range spec.Env {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed environment entry for key %q", key)
		}
		if err := sb.Validate("envKey", key); err != nil {
			return nil, err
		}
	}

	cmd := sb.executor.Command(spec.Executable, spec.Args...) //nolint:gosec // SafeBuilder provides validation
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd, nil
}
