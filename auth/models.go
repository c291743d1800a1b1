// Package auth, as previously noted, handles authentication.
// This file, `models.go`, defines the user account and its access tier.
package auth

import "time"

// Role is the access tier of an account. It is copied into every issued token.
type Role string

const (
	// RoleStandard is the default tier given at registration.
	RoleStandard Role = "standard"
	// RoleAdmin can reach the role-gated administrative endpoints.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// User represents an account as stored by the credential store.
// The `json:"-"` tag keeps the password hash out of every API response.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
