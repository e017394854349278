package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned by ValidatePasswordStrength when the
// candidate password does not satisfy the policy.
var ErrWeakPassword = errors.New("password does not meet strength requirements")

// passwordSymbols is the fixed set of symbols accepted by the policy.
const passwordSymbols = `!@#$%^&*()-_=+[]{};:,.<>?`

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePasswordStrength enforces the account password policy: at least
// eight characters containing a lowercase letter, an uppercase letter, a
// digit and one symbol from passwordSymbols.
func ValidatePasswordStrength(plain string) error {
	if len(plain) < 8 {
		return ErrWeakPassword
	}
	var lower, upper, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}
