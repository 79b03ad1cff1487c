package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordMinLength is the minimum accepted password length.
const PasswordMinLength = 8

// bannedPasswords are rejected regardless of composition.
var bannedPasswords = map[string]struct{}{
	"admin123":   {},
	"manager123": {},
	"user123":    {},
	"password":   {},
	"123456":     {},
	"welcome":    {},
	"welco2026":  {},
}

// ValidatePassword enforces the password policy: minimum length, mixed
// case, digit, symbol and the static banned set. It is applied at
// self-registration and at administrative creates/resets alike.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLength)
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	switch {
	case !hasUpper:
		return errors.New("password must include an uppercase letter")
	case !hasLower:
		return errors.New("password must include a lowercase letter")
	case !hasDigit:
		return errors.New("password must include a number")
	case !hasSymbol:
		return errors.New("password must include a symbol")
	}
	if _, banned := bannedPasswords[strings.ToLower(password)]; banned {
		return errors.New("password is too common")
	}
	return nil
}

// ClampBcryptCost bounds the configured bcrypt cost factor to 10..14.
func ClampBcryptCost(cost int) int {
	if cost < 10 {
		return 10
	}
	if cost > 14 {
		return 14
	}
	return cost
}
