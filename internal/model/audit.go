package model

import "time"

// LoginAttempt is an append-only row in `login_attempts`. One row is
// written per login call before the credential check (success=false) and
// amended once the outcome is known. Only failed attempts inside the
// trailing block window count toward the rate limit.
//
// Fields:
//  ID          – primary key identifier.
//  IPAddress   – source address of the attempt.
//  Username    – attempted login name; may be empty.
//  Success     – whether the credential check eventually passed.
//  AttemptedAt – timestamp recorded when the attempt row was written.
type LoginAttempt struct {
	ID          uint64    // login_attempts.id
	IPAddress   string    // login_attempts.ip_address
	Username    string    // login_attempts.username
	Success     bool      // login_attempts.success
	AttemptedAt time.Time // login_attempts.attempted_at
}

// OTPPurpose tags what an issued one-time code may be consumed for.
// The tag is persisted and must match at consume time.
type OTPPurpose string

const (
	OTPPurposeRegister OTPPurpose = "register" // registration flow
	OTPPurposeDelete   OTPPurpose = "delete"   // account deletion flow
)

// OTPVerification is the single pending one-time code for an email
// address. Issuing a new code for the same email overwrites the previous
// row, so at most one code is outstanding per email at any time.
//
// Fields:
//  Email     – recipient address, unique key.
//  Code      – six-digit numeric code.
//  Purpose   – what the code authorizes (register or delete).
//  ExpiresAt – short-lived expiry; expired codes are removed on detection.
type OTPVerification struct {
	Email     string     // otp_verifications.email
	Code      string     // otp_verifications.code
	Purpose   OTPPurpose // otp_verifications.purpose
	ExpiresAt time.Time  // otp_verifications.expires_at
}

// Audit actions recorded on menu mutations.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// TargetTypeMenu is the only audited target type for now.
const TargetTypeMenu = "Menu"

// FieldChange captures a single field's state before and after a menu
// update. Binary fields are stored in their transport-safe data-URI form,
// never as raw bytes.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// MenuLog is an immutable audit record appended once per mutating menu
// operation. Update entries exist only when at least one field actually
// changed; Details then maps each changed field name to its before/after
// snapshot.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – actor who performed the mutation.
//  Action     – one of create, update, delete.
//  TargetType – audited entity type, currently always "Menu".
//  TargetID   – identifier of the mutated menu.
//  Details    – changed-field map; nil for create and delete entries.
//  IPAddress  – source address of the request.
//  CreatedAt  – timestamp of the mutation.
type MenuLog struct {
	ID         uint64                 // menu_logs.id
	UserID     uint64                 // menu_logs.user_id
	Action     string                 // menu_logs.action
	TargetType string                 // menu_logs.target_type
	TargetID   uint64                 // menu_logs.target_id
	Details    map[string]FieldChange // menu_logs.details (JSON, nullable)
	IPAddress  string                 // menu_logs.ip_address
	CreatedAt  time.Time              // menu_logs.created_at
}
