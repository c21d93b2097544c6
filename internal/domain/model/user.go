package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 string     `json:"id" db:"id"`
	Username           string     `json:"username" db:"username"`
	Role               string     `json:"role" db:"role"`
	PasswordHash       string     `json:"-" db:"password_hash"` // Not exposed
	ResetCodeHash      *string    `json:"-" db:"reset_code_hash"`
	ResetCodeExpiresAt *time.Time `json:"-" db:"reset_code_expires_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicUser is the subset of user fields safe to return to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Profile is a PublicUser plus its creation time.
type Profile struct {
	PublicUser
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (u *User) Profile() Profile {
	return Profile{PublicUser: u.Public(), CreatedAt: u.CreatedAt}
}

// HasPendingReset reports whether a reset code was issued and not yet consumed.
func (u *User) HasPendingReset() bool {
	return u.ResetCodeHash != nil && u.ResetCodeExpiresAt != nil
}

// SetResetCode installs a reset code hash together with its expiry.
func (u *User) SetResetCode(hash string, expiresAt, now time.Time) {
	expiresAt = expiresAt.UTC()
	u.ResetCodeHash = &hash
	u.ResetCodeExpiresAt = &expiresAt
	u.UpdatedAt = now.UTC()
}

// ClearResetCode drops both reset fields.
func (u *User) ClearResetCode(now time.Time) {
	u.ResetCodeHash = nil
	u.ResetCodeExpiresAt = nil
	u.UpdatedAt = now.UTC()
}
