package domain

import (
	"strings"

	dErrors "bellgas/pkg/domain-errors"
)

// Role is the closed set of storefront roles.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleMerchant Role = "MERCHANT"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole accepts the canonical upper-case names, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(s)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMerchant:
		return RoleMerchant, nil
	case RoleCustomer:
		return RoleCustomer, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

func (r Role) String() string {
	return string(r)
}

// IsStaff reports whether the role belongs to back-office users.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleMerchant:
		return true
	case RoleCustomer:
		return false
	default:
		return false
	}
}
