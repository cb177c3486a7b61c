package lifecycle

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Window is the UI window the shell decorates during startup.
type Window interface {
	SetTitle(title string) error
}

// TerminalWindow titles the controlling terminal with an OSC escape.
type TerminalWindow struct {
	output *termenv.Output
}

// NewTerminalWindow returns a Window for w, or nil when w is not a terminal.
// A nil Window is skipped by the controller, mirroring a UI with no main
// window to decorate.
func NewTerminalWindow(w io.Writer) Window {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if !term.IsTerminal(int(f.Fd())) {
			return nil
		}
	}
	return &TerminalWindow{output: termenv.NewOutput(w)}
}

// SetTitle sets the terminal title. Titles containing control characters
// are rejected since they would corrupt the escape sequence.
func (tw *TerminalWindow) SetTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is empty")
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return fmt.Errorf("title contains control characters")
	}
	tw.output.SetWindowTitle(title)
	return nil
}
