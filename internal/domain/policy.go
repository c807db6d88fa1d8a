package domain

import "fmt"

type RequirementKind string

const (
	RequirePublic        RequirementKind = "PUBLIC"
	RequireAuthenticated RequirementKind = "AUTHENTICATED"
	RequireRole          RequirementKind = "ROLE"
)

// Requirement is the capability a request must hold to proceed. Role is only
// meaningful when Kind is RequireRole.
type Requirement struct {
	Kind RequirementKind `json:"kind"`
	Role Role            `json:"role,omitempty"`
}

func Public() Requirement {
	return Requirement{Kind: RequirePublic}
}

func Authenticated() Requirement {
	return Requirement{Kind: RequireAuthenticated}
}

func HasRole(role Role) Requirement {
	return Requirement{Kind: RequireRole, Role: role}
}

func (r Requirement) String() string {
	if r.Kind == RequireRole {
		return fmt.Sprintf("%s(%s)", r.Kind, r.Role)
	}
	return string(r.Kind)
}

// AccessMatch names the rule that decided a request and what it requires.
type AccessMatch struct {
	Rule        string      `json:"rule"`
	Requirement Requirement `json:"requirement"`
}
