package domain

import (
	"slices"
	"strings"
	"time"
)

// SecurityStampSize is the length in bytes of the per-user revocation nonce.
const SecurityStampSize = 32

// RoleAdmin grants unconditional access to every project and listing.
const RoleAdmin = "admin"

type User struct {
	ID                 int64
	Email              string
	NormalizedEmail    string // upper-cased lookup key
	FirstName          string
	LastName           string
	PasswordHash       string // argon2id encoded
	SecurityStamp      []byte // never empty; rotating it invalidates issued tokens
	Roles              []string
	EmailVerified      bool
	Enabled            bool
	LastInvitationSent *time.Time
	JoinedAt           time.Time
	UpdatedAt          time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return slices.Contains(u.Roles, RoleAdmin)
}

// NormalizeEmail produces the canonical lookup key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}
