package auth

import "time"

// Role is the closed set of role names recognized by the service.
// Authorization decisions compare against these constants, never against
// free-form strings from request payloads.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleAdvisor       Role = "Advisor"
)

// KnownRole reports whether name belongs to the closed role set.
func KnownRole(name Role) bool {
	switch name {
	case RoleAdministrator, RoleAdvisor:
		return true
	}
	return false
}

// Identity is a human account able to log in. Owned by the identity store;
// the workflow core only ever reads it.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	RoleName     Role      `json:"role_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleInfo is a reference-data row describing one role.
type RoleInfo struct {
	ID          string `json:"id"`
	Name        Role   `json:"name"`
	Description string `json:"description,omitempty"`
}
