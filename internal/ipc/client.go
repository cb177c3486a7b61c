package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/credential"
	"github.com/grovetools/exportshell/pkg/session"
)

// baseURL is the dummy host used for Unix socket HTTP requests.
const baseURL = "http://unix"

// Client queries a running shell over its session socket.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a Client that dials socketPath.
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   5 * time.Second,
		},
		socketPath: socketPath,
	}
}

// SocketPath returns the socket the client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Health returns nil if the shell answers on its socket.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "ok" {
		return fmt.Errorf("unexpected health response %q", body)
	}
	return nil
}

// Session fetches the session descriptor. Before startup has published it
// the returned error carries NOT_INITIALIZED. A descriptor whose token is not
// a generated credential is rejected.
func (c *Client) Session(ctx context.Context) (session.Descriptor, error) {
	var desc session.Descriptor
	body, err := c.get(ctx, "/api/session")
	if err != nil {
		return desc, err
	}
	if err := json.Unmarshal(body, &desc); err != nil {
		return desc, fmt.Errorf("failed to decode session: %w", err)
	}
	if !credential.Valid(desc.Token) {
		return session.Descriptor{}, errors.New(errors.ErrCodeInternal, "session descriptor carries a malformed token").
			WithDetail("socket", c.socketPath)
	}
	return desc, nil
}

// Status fetches the shell's lifecycle status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	body, err := c.get(ctx, "/api/status")
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return st, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, nil
}

// get performs a GET and returns the body of a 200 response. Error responses
// are decoded back into the ShellError the server sent.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach exportshell at %s: %w", c.socketPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var shellErr errors.ShellError
		if json.Unmarshal(body, &shellErr) == nil && shellErr.Code != "" {
			return nil, &shellErr
		}
		return nil, fmt.Errorf("exportshell returned status %d", resp.StatusCode)
	}
	return body, nil
}
