package credential

import (
	"regexp"
	"testing"

	"github.com/grovetools/exportshell/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		token := Generate()
		require.Len(t, token, Length)
		assert.Regexp(t, hexPattern, token)
		assert.True(t, Valid(token))
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		token := Generate()
		_, dup := seen[token]
		require.False(t, dup, "duplicate credential generated")
		seen[token] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		valid bool
	}{
		{"generated", Generate(), true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase", "ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789", false},
		{"non hex", "g" + Generate()[1:], false},
		{"too long", Generate() + "0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, Valid(tc.value))
		})
	}
}

func TestHeader(t *testing.T) {
	token := Generate()
	assert.Equal(t, "Bearer "+token, Header(token))
}

func TestCheckStrength(t *testing.T) {
	assert.NoError(t, CheckStrength(Generate()))

	err := CheckStrength("short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	assert.Error(t, CheckStrength(""))
}
