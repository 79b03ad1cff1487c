package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The same error covers
	// unknown users, wrong passwords and inactive accounts so callers
	// cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the email is in a lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
)
