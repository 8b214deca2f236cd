package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleStudent
	RoleFaculty
)

var roleNames = map[Role]string{
	RoleAdmin:   "admin",
	RoleStudent: "student",
	RoleFaculty: "faculty",
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "student":
		return RoleStudent, nil
	case "faculty":
		return RoleFaculty, nil
	default:
		return 0, fmt.Errorf("invalid role %q", s)
	}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
}

// RoleSet is a membership set over Role.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}
