package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/menupress/menupress/internal/model"
)

// OTPRepo stores pending one-time codes keyed by email in the
// 'otp_verifications' table. The primary key on email makes the upsert
// replace any earlier pending code for the same address.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Upsert writes the pending code for an email, overwriting any previous
// one regardless of purpose.
func (r *OTPRepo) Upsert(ctx context.Context, v *model.OTPVerification) error {
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO otp_verifications (email, code, purpose, expires_at) VALUES (?,?,?,?) "+
			"ON DUPLICATE KEY UPDATE code=VALUES(code), purpose=VALUES(purpose), expires_at=VALUES(expires_at)",
		v.Email, v.Code, string(v.Purpose), v.ExpiresAt)
	return err
}

// Find returns the pending verification matching (email, code).
func (r *OTPRepo) Find(ctx context.Context, email, code string) (model.OTPVerification, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var v model.OTPVerification
	var purpose string
	err := r.DB.QueryRowContext(ctx,
		"SELECT email,code,purpose,expires_at FROM otp_verifications WHERE email=? AND code=? LIMIT 1",
		email, code).Scan(&v.Email, &v.Code, &purpose, &v.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.OTPVerification{}, ErrNotFound
	}
	v.Purpose = model.OTPPurpose(purpose)
	return v, err
}

// Delete removes the pending code for an email. Absence is not an error.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx, "DELETE FROM otp_verifications WHERE email=?", email)
	return err
}
