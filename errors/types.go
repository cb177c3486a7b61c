// Package errors defines the coded errors shared by the supervisor, the
// session socket and the CLI. Codes travel intact through %w wrapping and
// across the socket as JSON bodies.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode is the stable, machine-readable part of a ShellError.
type ErrorCode string

const (
	// Supervisor errors
	ErrCodeLockUnavailable   ErrorCode = "LOCK_UNAVAILABLE"
	ErrCodeSpawnFailed       ErrorCode = "SPAWN_FAILED"
	ErrCodeNotInitialized    ErrorCode = "NOT_INITIALIZED"
	ErrCodeWindowSetupFailed ErrorCode = "WINDOW_SETUP_FAILED"
	ErrCodeAlreadyRunning    ErrorCode = "ALREADY_RUNNING"
	ErrCodeNotRunning        ErrorCode = "NOT_RUNNING"

	// Backend errors
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ShellError is an error with a code, a user-facing message and optional
// details such as the slot, executable or config path involved. It is also
// the JSON error body of the session socket; Cause stays process-local.
type ShellError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error renders "CODE: message", followed by the cause when there is one.
func (e *ShellError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to the standard errors helpers.
func (e *ShellError) Unwrap() error {
	return e.Cause
}

// WithDetail records key=value on e and returns e for chaining. Never pass
// the session credential as a value: details are printed and sent over the
// socket.
func (e *ShellError) WithDetail(key string, value interface{}) *ShellError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON renders e as indented JSON, as printed by the CLI in verbose mode.
func (e *ShellError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New returns a ShellError without a cause.
func New(code ErrorCode, message string) *ShellError {
	return &ShellError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a ShellError whose cause is err.
func Wrap(err error, code ErrorCode, message string) *ShellError {
	return &ShellError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the outermost ShellError in err's chain.
func As(err error) (*ShellError, bool) {
	var shellErr *ShellError
	if stderrors.As(err, &shellErr) {
		return shellErr, true
	}
	return nil, false
}

// Is reports whether the outermost ShellError in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost ShellError in err's chain, or
// "" when there is none.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	shellErr, ok := As(err)
	if !ok {
		return ""
	}
	return shellErr.Code
}
