package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/grovetools/exportshell/errors"
)

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if err := c.Backend.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Window.Title) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "window.title cannot be empty").
			WithDetail("field", "window.title")
	}
	if strings.IndexFunc(c.Window.Title, unicode.IsControl) >= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "window.title cannot contain control characters").
			WithDetail("field", "window.title")
	}

	if c.IPC.Socket != "" && strings.ContainsRune(c.IPC.Socket, 0) {
		return errors.New(errors.ErrCodeConfigInvalid, "ipc.socket contains a NUL byte").
			WithDetail("field", "ipc.socket")
	}

	return nil
}

func (b BackendConfig) validate() error {
	if b.Port < 1 || b.Port > 65535 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("backend.port %d out of range 1-65535", b.Port)).
			WithDetail("field", "backend.port")
	}

	if strings.TrimSpace(b.Executable) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "backend.executable cannot be empty").
			WithDetail("field", "backend.executable")
	}
	if strings.ContainsAny(b.Executable, ";&|`$<>") {
		return errors.New(errors.ErrCodeConfigInvalid, "backend.executable contains shell metacharacters").
			WithDetail("field", "backend.executable")
	}

	for i, arg := range b.Args {
		if strings.ContainsRune(arg, 0) {
			return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("backend.args[%d] contains a NUL byte", i)).
				WithDetail("field", "backend.args")
		}
	}

	return nil
}
