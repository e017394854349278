// Package otp manages short-lived one-time codes that gate the
// registration and account deletion flows. At most one code is pending
// per email; issuing a new one overwrites the previous code. Codes are
// single-use and purpose-tagged.
package otp

import (
	"context"
	"errors"
	"time"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
	"github.com/menupress/menupress/internal/utils"
)

// ErrInvalidCode is returned when no pending code matches (email, code)
// or when the pending code was issued for a different purpose.
var ErrInvalidCode = errors.New("invalid verification code")

// ErrCodeExpired is returned when the matching code's TTL has elapsed.
// The record is removed on detection, so a retry fails ErrInvalidCode.
var ErrCodeExpired = errors.New("verification code expired")

const codeDigits = 6

// VerificationStore is the persistence surface for pending codes.
type VerificationStore interface {
	Upsert(ctx context.Context, v *model.OTPVerification) error
	Find(ctx context.Context, email, code string) (model.OTPVerification, error)
	Delete(ctx context.Context, email string) error
}

// Store issues and consumes one-time codes.
type Store struct {
	store       VerificationStore
	registerTTL time.Duration
	deleteTTL   time.Duration
	now         func() time.Time
}

// New builds a Store. Deletion codes get a shorter TTL than
// registration codes.
func New(store VerificationStore, registerTTL, deleteTTL time.Duration) *Store {
	return &Store{store: store, registerTTL: registerTTL, deleteTTL: deleteTTL, now: time.Now}
}

// Issue generates a fresh six-digit code for the email, replacing any
// pending one, and returns it for delivery.
func (s *Store) Issue(ctx context.Context, email string, purpose model.OTPPurpose) (string, error) {
	code, err := utils.NewOTPCode(codeDigits)
	if err != nil {
		return "", err
	}
	ttl := s.registerTTL
	if purpose == model.OTPPurposeDelete {
		ttl = s.deleteTTL
	}
	v := model.OTPVerification{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	if err := s.store.Upsert(ctx, &v); err != nil {
		return "", err
	}
	return code, nil
}

// Consume validates and burns a code. On success the record is deleted,
// so a second consume with the same code fails ErrInvalidCode.
func (s *Store) Consume(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	v, err := s.store.Find(ctx, email, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	if v.Purpose != purpose {
		return ErrInvalidCode
	}
	if s.now().UTC().After(v.ExpiresAt) {
		// Expired codes count as consumed.
		_ = s.store.Delete(ctx, email)
		return ErrCodeExpired
	}
	return s.store.Delete(ctx, email)
}
