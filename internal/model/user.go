package model

import "time"

// User represents a restaurant-owner account as stored in the `users`
// table. The password is stored only as a bcrypt hash; the plaintext is
// never persisted. Accounts are soft-deleted by clearing Active rather
// than removing the row, so audit records keep a valid owner reference.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name; also the public restaurant name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – owner's first name.
//  LastName     – owner's last name.
//  MobileNo     – unique mobile number.
//  DOB          – date of birth.
//  Role         – role name, "user" unless promoted.
//  Active       – soft-delete marker; false once deletion is confirmed.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	MobileNo     string    // users.mobile_no
	DOB          time.Time // users.dob
	Role         string    // users.role
	Active       bool      // users.active
	CreatedAt    time.Time // users.created_at
}

// RoleUser is the default role assigned at registration.
const RoleUser = "user"

// Session models a row in the `sessions` table. The token itself is the
// opaque bearer credential handed to the client; there is no refresh
// mechanism, so expiry forces a fresh login. A user may hold several
// concurrent sessions.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  Token     – unique random opaque token (64 hex chars).
//  IPAddress – source address recorded at login.
//  CreatedAt – timestamp of creation.
//  ExpiresAt – absolute expiry; validation past this instant fails and
//              removes the row.
type Session struct {
	ID        uint64    // sessions.id
	UserID    uint64    // sessions.user_id
	Token     string    // sessions.session_token
	IPAddress string    // sessions.ip_address
	CreatedAt time.Time // sessions.created_at
	ExpiresAt time.Time // sessions.expires_at
}
