package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/exportshell/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	shellErr, _ := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeSpawnFailed:
		fmt.Fprintf(out, "❌ Could not start the backend (%v)\n", shellErr.Details["executable"])
		fmt.Fprintf(out, "Set IMEXPORT_BACKEND_PYTHON or backend.executable to a working interpreter.\n")

	case errors.ErrCodeAlreadyRunning:
		fmt.Fprintf(out, "❌ exportshell is already running (PID %v)\n", shellErr.Details["pid"])
		fmt.Fprintf(out, "Stop it with 'exportshell stop' first.\n")

	case errors.ErrCodeNotRunning:
		fmt.Fprintf(out, "❌ exportshell is not running. Start it with 'exportshell run'.\n")

	case errors.ErrCodeBackendUnavailable:
		fmt.Fprintf(out, "❌ The backend at %v did not answer: %v\n", shellErr.Details["base_url"], shellErr.Cause)

	case errors.ErrCodeUnauthorized:
		fmt.Fprintf(out, "❌ The backend at %v rejected the session token. Restart exportshell.\n", shellErr.Details["base_url"])

	case errors.ErrCodeNotInitialized:
		fmt.Fprintf(out, "❌ The session has not been initialized yet. Try again once startup completes.\n")

	case errors.ErrCodeLockUnavailable:
		fmt.Fprintf(out, "❌ Session state is unavailable (%v lock). Restart exportshell.\n", shellErr.Details["slot"])

	case errors.ErrCodeWindowSetupFailed:
		fmt.Fprintf(out, "❌ Window setup failed: %v\n", err)
		fmt.Fprintf(out, "The backend was stopped. Run without a terminal title (non-interactive) or check the terminal.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ Invalid configuration: %v\n", err)

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found: %v\n", shellErr.Details["path"])

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && shellErr != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", shellErr.ToJSON())
	}
	return err
}
