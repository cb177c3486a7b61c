package credential

import (
	"fmt"

	"github.com/grovetools/exportshell/errors"
)

// MinLength is the shortest token the backend accepts.
const MinLength = 32

// CheckStrength rejects tokens the backend would refuse at startup.
func CheckStrength(token string) error {
	if token == "" {
		return errors.InvalidInput("token", "token is empty")
	}
	if len(token) < MinLength {
		return errors.InvalidInput("token", fmt.Sprintf("must be at least %d characters", MinLength))
	}
	return nil
}

// Header formats token as the Authorization header value the backend
// expects on every request.
func Header(token string) string {
	return "Bearer " + token
}
