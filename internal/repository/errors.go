// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// domain services to distinguish failure scenarios without inspecting
// driver error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup matches no row. Ownership
// mismatches fold into this error so non-owners cannot distinguish
// "absent" from "not yours".
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// registering a username, email or mobile number that is already taken.
var ErrDuplicate = errors.New("duplicate value")

// isDuplicateKey reports whether err is a MySQL 1062 unique violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
