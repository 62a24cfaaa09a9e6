package session

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

// Role is the closed set of portals a user can sign in to.
type Role int

const (
	RoleStudent Role = iota + 1
	RoleTeacher
	RoleAdmin
)

var (
	ErrUnknownRole = errors.New("unknown role")

	Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}
)

// ParseRole parses the lower-case role name.
func ParseRole(s string) (Role, error) {
	switch core.CleanString(s, true) {
	case "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, errors.Wrapf(ErrUnknownRole, "%q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return ""
	}
}

func (r Role) IsValid() bool { return r.String() != "" }

// IsStaff reports whether the role belongs to the school's staff (teacher or admin).
func (r Role) IsStaff() bool {
	switch r {
	case RoleTeacher, RoleAdmin:
		return true
	case RoleStudent:
		return false
	default:
		return false
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, errors.Wrapf(ErrUnknownRole, "%d", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}
