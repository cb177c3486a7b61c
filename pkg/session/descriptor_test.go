package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDescriptor(t *testing.T) {
	d := NewDescriptor(LoopbackHost, 8765, "abc")
	assert.Equal(t, "http://127.0.0.1:8765", d.BaseURL)
	assert.Equal(t, "abc", d.Token)
}

func TestBaseURLIPv6(t *testing.T) {
	assert.Equal(t, "http://[::1]:9000", BaseURL("::1", 9000))
}

func TestDescriptorStringRedactsToken(t *testing.T) {
	token := strings.Repeat("ab", 32)
	d := NewDescriptor(LoopbackHost, 8765, token)

	assert.NotContains(t, d.String(), token)
	assert.NotContains(t, fmt.Sprintf("%v", d), token)
	assert.Contains(t, d.String(), "http://127.0.0.1:8765")
}
