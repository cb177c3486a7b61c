// Package session defines the connection details handed to the UI layer.
package session

import (
	"fmt"
	"net"
	"strconv"
)

// LoopbackHost is the only address the backend is ever asked to bind.
const LoopbackHost = "127.0.0.1"

// Descriptor is the pair of backend address and credential the UI needs to
// talk to the backend. It holds only strings, so a copy is a full clone.
type Descriptor struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// NewDescriptor builds the descriptor for a backend bound on host:port.
func NewDescriptor(host string, port int, token string) Descriptor {
	return Descriptor{
		BaseURL: BaseURL(host, port),
		Token:   token,
	}
}

// BaseURL renders the http locator for host:port.
func BaseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// String keeps the token out of logs and error messages.
func (d Descriptor) String() string {
	return fmt.Sprintf("{base_url: %s, token: [redacted]}", d.BaseURL)
}

// Source is the read side of the session registry exposed to UI consumers.
type Source interface {
	// Session returns the current descriptor, or a NOT_INITIALIZED error
	// if startup has not published one yet.
	Session() (Descriptor, error)
}
