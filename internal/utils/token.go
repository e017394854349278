package utils // package utils provides helper functions for token and code generation

import (
	"crypto/rand" // secure random number generation
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewSessionToken returns the opaque bearer credential stored on a session
// row. It carries 32 bytes of cryptographically secure randomness encoded
// as 64 hex characters, which makes collisions negligible.
func NewSessionToken() (string, error) {
	return randomHex(32)
}

// NewOTPCode returns a numeric one-time code with the given number of
// digits, left-padded with zeros. Six digits are used for account flows.
func NewOTPCode(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("invalid otp length %d", digits)
	}
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
