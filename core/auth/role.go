package auth

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Role is the closed set of account types.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

var roleAliases = map[string]Role{
	"customer":      RoleCustomer,
	"user":          RoleCustomer,
	"buyer":         RoleCustomer,
	"merchant":      RoleMerchant,
	"vendor":        RoleMerchant,
	"seller":        RoleMerchant,
	"business":      RoleMerchant,
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"superadmin":    RoleAdmin,
}

var separators = strings.NewReplacer("-", "", "_", "", " ", "")

// ParseRole maps a backend user type to a Role. Case and the separators
// "-", "_" and " " are ignored, so "Super_Admin" and "superadmin" agree.
func ParseRole(raw string) (Role, error) {
	folded := separators.Replace(cases.Fold().String(strings.TrimSpace(raw)))
	if r, ok := roleAliases[folded]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}
