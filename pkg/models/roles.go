package models

import (
	"fmt"
	"slices"
)

// Role represents the access level of whoever is using the client
type Role string

const (
	RoleGuest Role = "guest" // no session, only the login and register pages
	RoleUser  Role = "user"  // authenticated, can see and change their own workouts and routines
)

// RoleHierarchy defines the privilege level of each role.
// Higher numbers represent higher privileges.
var RoleHierarchy = map[Role]int{
	RoleGuest: 0,
	RoleUser:  20,
}

// ListRoles returns all roles from the RoleHierarchy, lowest privilege first.
func ListRoles() []string {
	roles := make([]Role, 0, len(RoleHierarchy))
	for r := range RoleHierarchy {
		roles = append(roles, r)
	}

	slices.SortFunc(roles, func(a, b Role) int {
		return RoleHierarchy[a] - RoleHierarchy[b]
	})

	result := make([]string, 0, len(roles))
	for _, r := range roles {
		result = append(result, r.String())
	}
	return result
}

// IsValid checks if the Role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	_, exists := RoleHierarchy[r]
	return exists
}

// String implements the fmt.Stringer interface.
func (r Role) String() string {
	return string(r)
}

func (r *Role) UnmarshalText(text []byte) error {
	s := Role(text)
	if !s.IsValid() {
		return fmt.Errorf("invalid role: %s", text)
	}
	*r = s
	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// AtLeast reports whether r grants at least the privileges of min.
// Unknown roles never satisfy anything.
func (r Role) AtLeast(min Role) bool {
	if r.IsValid() && min.IsValid() {
		return RoleHierarchy[r] >= RoleHierarchy[min]
	}
	return false
}
