package roles

import (
	"errors"
	"time"
)

const (
	RoleUser      = "User"
	RoleFiduciary = "Fiduciary"
	RoleAdmin     = "Admin"
)

// AdditionalRole is one registry entry beyond the user's primary role.
type AdditionalRole struct {
	Role       string    `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by"`
}

// UserWithRoles is the registry's view of a platform user.
type UserWithRoles struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Mobile          string           `json:"mobile"`
	PrimaryRole     string           `json:"primary_role"`
	AdditionalRoles []AdditionalRole `json:"additional_roles"`
	IsSuperAdmin    bool             `json:"is_super_admin"`
	Status          string           `json:"status"`
}

// HasExtraRoles feeds the dashboard statistic of multi-role users.
func HasExtraRoles(u UserWithRoles) bool {
	return len(u.AdditionalRoles) > 0
}

func validRole(role string) bool {
	return role == RoleUser || role == RoleFiduciary || role == RoleAdmin
}

// AssignRoleDTO is the body of POST /assign-role. Duplicate-role
// semantics are entirely server-side: the client submits as-is even if
// the user already holds the role.
type AssignRoleDTO struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (dto AssignRoleDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if !validRole(dto.Role) {
		return errors.New("role must be one of User, Fiduciary, Admin")
	}
	return nil
}

// RemoveRoleDTO is the body of DELETE /remove-role. Removal targets
// exactly one additional-role entry and never touches primary_role or
// is_super_admin.
type RemoveRoleDTO struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (dto RemoveRoleDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if !validRole(dto.Role) {
		return errors.New("role must be one of User, Fiduciary, Admin")
	}
	return nil
}
