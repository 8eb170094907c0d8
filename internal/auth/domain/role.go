package domain

import "fmt"

// Role is a strictly ordered privilege level. Authorization is always an
// ordinal comparison, never set membership, so a higher role implies every
// lower role's permissions.
type Role int

const (
	RoleUser Role = iota
	RoleEditor
	RoleAdmin
	RoleSuperAdmin
)

// ParseRole converts the stored text form into a Role. Unknown values are an
// error rather than a silent default; a stale enum in the database must not
// grant or deny access arbitrarily.
func ParseRole(s string) (Role, error) {
	switch s {
	case "USER":
		return RoleUser, nil
	case "EDITOR":
		return RoleEditor, nil
	case "ADMIN":
		return RoleAdmin, nil
	case "SUPER_ADMIN":
		return RoleSuperAdmin, nil
	default:
		return RoleUser, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleEditor:
		return "EDITOR"
	case RoleAdmin:
		return "ADMIN"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// AtLeast reports whether r carries the privileges of required.
func (r Role) AtLeast(required Role) bool {
	return r >= required
}

// CanAccessAdmin reports whether the role may enter the admin panel.
func (r Role) CanAccessAdmin() bool { return r.AtLeast(RoleEditor) }

// CanManageUsers reports whether the role may change other users' roles.
func (r Role) CanManageUsers() bool { return r.AtLeast(RoleSuperAdmin) }
