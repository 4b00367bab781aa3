package enums

import "fmt"

// ProviderRole scopes what a portal login can do within the business.
type ProviderRole string

const (
	RoleOwner      ProviderRole = "owner"
	RoleTechnician ProviderRole = "technician"
	RoleFrontDesk  ProviderRole = "front_desk"
)

var validProviderRoles = []ProviderRole{RoleOwner, RoleTechnician, RoleFrontDesk}

// IsValid checks whether the given role matches the canonical enum.
func (r ProviderRole) IsValid() bool {
	for _, candidate := range validProviderRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseProviderRole converts raw strings into ProviderRole.
func ParseProviderRole(value string) (ProviderRole, error) {
	for _, candidate := range validProviderRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provider role %q", value)
}
