package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Abc123!@", true},
		{"abc12345", false}, // no uppercase, no symbol
		{"ABC123!@", false}, // no lowercase
		{"Abcdefg!", false}, // no digit
		{"Abc12345", false}, // no symbol
		{"Ab1!", false},     // too short
		{"", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok {
			require.NoError(t, err, "password %q", tc.password)
		} else {
			require.Error(t, err, "password %q", tc.password)
		}
	}
}

func TestValidatePasswordBannedSet(t *testing.T) {
	for _, banned := range []string{"admin123", "password", "welco2026"} {
		require.Error(t, ValidatePassword(banned))
	}
}

func TestClampBcryptCost(t *testing.T) {
	require.Equal(t, 10, ClampBcryptCost(4))
	require.Equal(t, 12, ClampBcryptCost(12))
	require.Equal(t, 14, ClampBcryptCost(31))
}
