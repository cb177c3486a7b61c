package errors

import (
	"fmt"
	"os/exec"
)

// LockUnavailable reports a registry slot whose lock can no longer be trusted.
func LockUnavailable(slot string) *ShellError {
	return New(ErrCodeLockUnavailable, fmt.Sprintf("%s lock unavailable", slot)).
		WithDetail("slot", slot)
}

// SpawnFailed creates a process creation failure error
func SpawnFailed(executable string, err error) *ShellError {
	shellErr := Wrap(err, ErrCodeSpawnFailed, "failed to launch backend process").
		WithDetail("executable", executable)

	if exitErr, ok := err.(*exec.ExitError); ok {
		shellErr = shellErr.WithDetail("exitCode", exitErr.ExitCode())
	}
	if execErr, ok := err.(*exec.Error); ok {
		shellErr = shellErr.WithDetail("name", execErr.Name)
	}

	return shellErr
}

// NotInitialized is returned by the session accessor before startup has published a session.
func NotInitialized() *ShellError {
	return New(ErrCodeNotInitialized, "session has not been initialized")
}

// WindowSetupFailed wraps a failure configuring the UI window
func WindowSetupFailed(step string, err error) *ShellError {
	return Wrap(err, ErrCodeWindowSetupFailed, fmt.Sprintf("window setup failed: %s", step)).
		WithDetail("step", step)
}

// AlreadyRunning reports another shell instance holding the pid file.
func AlreadyRunning(pid int, path string) *ShellError {
	return New(ErrCodeAlreadyRunning, fmt.Sprintf("exportshell already running with PID %d", pid)).
		WithDetail("pid", pid).
		WithDetail("path", path)
}

// NotRunning reports that no shell holds the pid file.
func NotRunning() *ShellError {
	return New(ErrCodeNotRunning, "exportshell is not running")
}

// BackendUnavailable wraps a failed request to the backend at baseURL.
func BackendUnavailable(baseURL string, err error) *ShellError {
	return Wrap(err, ErrCodeBackendUnavailable, "backend did not answer").
		WithDetail("base_url", baseURL)
}

// Unauthorized reports that the backend refused the session token.
func Unauthorized(baseURL string) *ShellError {
	return New(ErrCodeUnauthorized, "backend rejected the session token").
		WithDetail("base_url", baseURL)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ShellError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ShellError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidInput creates an invalid argument error
func InvalidInput(field, reason string) *ShellError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}
