package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret1!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hash)

	assert.True(t, VerifyPassword(hash, "Secret1!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "Secret1!"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef1!", false},
		{"valid with bracket symbol", "Abcdef1[", false},
		{"too short", "Ab1!", true},
		{"no uppercase", "abcdefg1!", true},
		{"no lowercase", "ABCDEFG1!", true},
		{"no digit", "Abcdefgh!", true},
		{"no symbol", "Abcdefgh1", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
