package session

import (
	"strings"

	"github.com/cstrack/cstrack-client/internal/credstore"
)

// Role is the closed set of dashboard roles.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleEmployee
	RoleGuest
)

const rolePrefix = "ROLE_"

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "STUDENT"
	case RoleEmployee:
		return "EMPLOYEE"
	case RoleGuest:
		return "GUEST"
	}
	return "UNKNOWN"
}

// Tag is the value cached under the "role" credential key.
func (r Role) Tag() string { return rolePrefix + r.String() }

// SubjectKey names the credential key holding this role's identifier.
func (r Role) SubjectKey() string {
	switch r {
	case RoleStudent:
		return credstore.KeyStudentNumber
	case RoleEmployee:
		return credstore.KeyEmployeeNumber
	case RoleGuest:
		return credstore.KeyGuestID
	}
	return ""
}

// ParseRole maps a role tag or authority to a Role. Any number of leading
// "ROLE_" prefixes is accepted, so ROLE_ROLE_GUEST and GUEST both map to
// RoleGuest. Anything else is RoleUnknown.
func ParseRole(s string) Role {
	s = strings.ToUpper(strings.TrimSpace(s))
	for strings.HasPrefix(s, rolePrefix) {
		s = strings.TrimPrefix(s, rolePrefix)
	}
	switch s {
	case "STUDENT":
		return RoleStudent
	case "EMPLOYEE":
		return RoleEmployee
	case "GUEST":
		return RoleGuest
	}
	return RoleUnknown
}

// RoleFromAuthorities picks the dashboard role granted by an authorities
// list. Student wins over Employee, Employee over Guest.
func RoleFromAuthorities(authorities []string) Role {
	found := map[Role]bool{}
	for _, a := range authorities {
		found[ParseRole(a)] = true
	}
	for _, r := range []Role{RoleStudent, RoleEmployee, RoleGuest} {
		if found[r] {
			return r
		}
	}
	return RoleUnknown
}
