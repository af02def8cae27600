package enums

import "fmt"

// Role represents a field-operations actor role.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleProspector  Role = "PROSPECTOR"
	RoleSalesLeader Role = "SALES_LEADER"
	RoleInstaller   Role = "INSTALLER"
	RoleInspector   Role = "INSPECTOR"
)

var validRoles = []Role{
	RoleAdmin,
	RoleProspector,
	RoleSalesLeader,
	RoleInstaller,
	RoleInspector,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Tracked reports whether route samples are archived for this role.
// Only roles that move between addresses during a shift leave a trace.
func (r Role) Tracked() bool {
	switch r {
	case RoleProspector, RoleInstaller, RoleSalesLeader:
		return true
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
