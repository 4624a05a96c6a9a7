package domain

import (
	"strings"
	"time"
)

// Role enumerates trust levels for accounts.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleMaster Role = "MASTER"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleMaster:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw value into a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.IsValid()
}

// AllRoles lists roles from least to most trusted.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleMaster}
}

// RoleChoices describes the accepted values, e.g. "must be one of USER, ADMIN, MASTER".
func RoleChoices() string {
	names := make([]string, 0, 3)
	for _, role := range AllRoles() {
		names = append(names, string(role))
	}
	return "must be one of " + strings.Join(names, ", ")
}

// User is the persisted account record.
type User struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string `json:"-"`
	Name         string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	ID       string
	Email    string
	Phone    string
	Name     string
	Role     Role
	IsActive bool
}

// Identity strips the user down to its public fields.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:       u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
