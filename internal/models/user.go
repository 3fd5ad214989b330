package models

import (
	"time"
)

// Authorities granted by the seed migration
const (
	RoleOperator = "ROLE_OPERATOR"
	RoleAdmin    = "ROLE_ADMIN"
)

type Role struct {
	ID        int64
	Authority string
}

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds the given authority.
func (u *User) HasRole(authority string) bool {
	for _, r := range u.Roles {
		if r.Authority == authority {
			return true
		}
	}
	return false
}

// Authorities returns the role authority names in the order they were loaded.
func (u *User) Authorities() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Authority)
	}
	return out
}

// Profile is the read-only view of the authenticated user.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
}
