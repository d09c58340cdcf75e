package domain

import (
	"fmt"
	"time"
)

// Role enumerates the kinds of account that can report or manage occurrences.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleCitizen, RoleStaff, RoleAdmin}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	for _, role := range Roles {
		if string(role) == raw {
			return role, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", raw)
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is an account that reports occurrences (citizen) or manages them (staff, admin).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}
