package domain

import "strings"

// Role is the capacity in which a user takes part in a document's thread.
type Role string

const (
	RoleClient     Role = "client"
	RoleFirm       Role = "firm"
	RoleAccountant Role = "accountant"
)

var Roles = []Role{RoleClient, RoleFirm, RoleAccountant}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFirm, RoleAccountant:
		return true
	}
	return false
}

// ParseRole accepts any casing and surrounding whitespace.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
