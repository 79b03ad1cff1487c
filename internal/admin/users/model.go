// Package users implements administrative user management.
package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("users: not found")
	ErrEmailTaken = errors.New("users: email already registered")
	ErrValidation = errors.New("users: validation failed")
)

// User is the administrative view of an account. Password hashes never
// leave the repository.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	RoleID         int64     `json:"roleId"`
	RoleName       string    `json:"roleName,omitempty"`
	DepartmentID   int64     `json:"departmentId,omitempty"`
	DepartmentName string    `json:"departmentName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListFilters narrows the user listing.
type ListFilters struct {
	Search string
	RoleID int64
	Status string
	Page   int
	Limit  int
}
