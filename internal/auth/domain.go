package auth

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents an account as loaded for authentication, including the
// role's flattened permission set.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Status       string
	RoleID       int64
	RoleName     string
	DepartmentID *int64
	Permissions  []shared.PermissionClaim
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the user into the context identity carried by a
// session token.
func (u *User) Identity() shared.Identity {
	return shared.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		RoleID:      u.RoleID,
		RoleName:    u.RoleName,
		Permissions: u.Permissions,
	}
}
