package enums

import "fmt"

// OperatorRole identifies the station an operator is authorized for.
type OperatorRole string

const (
	// OperatorRoleWarehouseAdmin bypasses all transition role checks.
	OperatorRoleWarehouseAdmin OperatorRole = "UA"
	OperatorRoleRegistration   OperatorRole = "UReg"
	OperatorRoleInitialTest    OperatorRole = "UTI"
	OperatorRoleAssembly       OperatorRole = "UEN"
	OperatorRoleRetest         OperatorRole = "UR"
	OperatorRolePackaging      OperatorRole = "UE"
	OperatorRoleViewer         OperatorRole = "UV"
)

var validOperatorRoles = []OperatorRole{
	OperatorRoleWarehouseAdmin,
	OperatorRoleRegistration,
	OperatorRoleInitialTest,
	OperatorRoleAssembly,
	OperatorRoleRetest,
	OperatorRolePackaging,
	OperatorRoleViewer,
}

// String implements fmt.Stringer.
func (r OperatorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known OperatorRole.
func (r OperatorRole) IsValid() bool {
	for _, candidate := range validOperatorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Overrides reports whether the role bypasses transition role checks.
func (r OperatorRole) Overrides() bool {
	return r == OperatorRoleWarehouseAdmin
}

// ParseOperatorRole converts raw input into an OperatorRole.
func ParseOperatorRole(value string) (OperatorRole, error) {
	for _, candidate := range validOperatorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operator role %q", value)
}
