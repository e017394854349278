package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	require.NoError(t, err)
	b, err := NewSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[0-9a-f]+$", a)
}

func TestNewOTPCode(t *testing.T) {
	code, err := NewOTPCode(6)
	require.NoError(t, err)

	assert.Len(t, code, 6)
	assert.Regexp(t, "^[0-9]+$", code)
}
