// Package model defines the core domain types for the chat relay.
package model

// Role represents a user's permission level, assigned once at
// authentication and immutable for the session's lifetime.
type Role int

const (
	RoleUser  Role = iota // default role, can chat and whisper
	RoleAdmin             // can kick, ban, and shut the server down
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a string to a Role. Unknown values map to RoleUser.
func ParseRole(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleUser
}

// Valid returns true if the role is a recognised value.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
