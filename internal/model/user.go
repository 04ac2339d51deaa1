package model

import "strings"

// Role is the portal user category carried in the bearer token.
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleRecruiter Role = "RECRUITER"
)

// ParseRole normalizes a role claim such as "recruiter" or "ROLE_RECRUITER".
func ParseRole(s string) Role {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ROLE_")
	switch Role(s) {
	case RoleRecruiter:
		return RoleRecruiter
	default:
		return RoleApplicant
	}
}

// User is the current signed-in identity as reported by GET /users/me.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
