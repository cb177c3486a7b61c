package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/credential"
)

// Health is the backend's /health response.
type Health struct {
	OK   bool   `json:"ok"`
	Mode string `json:"mode"`
}

// CheckHealth calls the backend's authenticated /health endpoint with d's
// token. A 401 yields UNAUTHORIZED; a transport failure or any other status
// yields BACKEND_UNAVAILABLE.
func CheckHealth(ctx context.Context, client *http.Client, d Descriptor) (Health, error) {
	var health Health
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/health", nil)
	if err != nil {
		return health, errors.BackendUnavailable(d.BaseURL, err)
	}
	req.Header.Set("Authorization", credential.Header(d.Token))

	resp, err := client.Do(req)
	if err != nil {
		return health, errors.BackendUnavailable(d.BaseURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return health, errors.Unauthorized(d.BaseURL)
	default:
		return health, errors.BackendUnavailable(d.BaseURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&health); err != nil {
		return health, errors.BackendUnavailable(d.BaseURL, fmt.Errorf("failed to decode health: %w", err))
	}
	return health, nil
}
