package models

import "time"

// Roles, in increasing order of privilege.
const (
	RoleUser     = "user"
	RoleUploader = "uploader"
	RoleAdmin    = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleUploader, RoleAdmin:
		return true
	}
	return false
}

// User represents an account. Password holds the hex sha256 digest.
type User struct {
	ID              int       `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Role            string    `db:"role" json:"role"`
	Password        *string   `db:"password" json:"-"`
	ExplicitConsent bool      `db:"explicit_consent" json:"explicitConsent"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Invite lets a new user onboard with a preassigned role.
type Invite struct {
	ID              string     `db:"id" json:"id"`
	Role            string     `db:"role" json:"role"`
	ExplicitConsent bool       `db:"explicit_consent" json:"explicitConsent"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	AcceptedAt      *time.Time `db:"accepted_at" json:"acceptedAt"`
}

// Session binds a login cookie to a user.
type Session struct {
	Username  string    `db:"username"`
	SessionID string    `db:"session_id"`
	Expires   time.Time `db:"expires"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.Expires.After(now)
}
