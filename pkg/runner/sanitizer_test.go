package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	ok, err := SanitizeInput(strings.Repeat("a", DefaultMaxInputSize))
	require.NoError(t, err)
	assert.Len(t, ok, DefaultMaxInputSize)

	_, err = SanitizeInput(strings.Repeat("a", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	// ANSI escape and NULL are stripped, whitespace controls survive.
	got, err := SanitizeInput("hello\x1b[31mred\x00\tworld\n")
	require.NoError(t, err)
	assert.Equal(t, "hello[31mred\tworld\n", got)
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput(strings.Repeat("a", 11))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := SanitizeInput("short")
	require.NoError(t, err)
	assert.Equal(t, "short", got)
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("bad\xff\xfe")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
