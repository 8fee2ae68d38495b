package role

import "fmt"

// Role is the business classification of a user. It is stored on the user row
// and copied into the session at login.
type Role string

const (
	Demandeur Role = "demandeur"
	Agent     Role = "agent"
	Admin     Role = "admin"
)

// All lists the roles in display order.
var All = []Role{Demandeur, Agent, Admin}

func (r Role) Valid() bool {
	switch r {
	case Demandeur, Agent, Admin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Parse converts a raw value into a Role.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
