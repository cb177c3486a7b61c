// Package credential generates the one-time API token shared between the
// shell and the backend it supervises, and formats the bearer header that
// carries it.
package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// ByteLength is the number of random bytes in a generated credential.
	ByteLength = 32

	// Length is the length of the hex-encoded credential.
	Length = ByteLength * 2
)

// Generate returns a fresh credential: 32 bytes from the OS CSPRNG encoded as
// 64 lowercase hex characters.
//
// An unavailable entropy source is fatal to the application, so Generate
// panics rather than returning an error.
func Generate() string {
	buf := make([]byte, ByteLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("credential: OS entropy source unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Valid reports whether s has the shape of a generated credential.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
