package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "meridian_session"

// ErrInvalidToken covers expired, malformed and badly signed tokens.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims is the self-contained session payload: identity plus the
// flattened permission snapshot taken at login. Nothing is stored server
// side; staleness is bounded by the token TTL.
type Claims struct {
	UserID      int64                    `json:"user_id"`
	Email       string                   `json:"email"`
	FullName    string                   `json:"full_name"`
	RoleID      int64                    `json:"role_id"`
	RoleName    string                   `json:"role"`
	Permissions []shared.PermissionClaim `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs an issuer. ttl defaults to 8 hours when zero.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured session lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(user *User, now time.Time) (string, error) {
	claims := &Claims{
		UserID:      user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		RoleID:      user.RoleID,
		RoleName:    user.RoleName,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "meridian-erp",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates the token and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Identity converts claims into the shared context identity.
func (c *Claims) Identity() *shared.Identity {
	return &shared.Identity{
		UserID:      c.UserID,
		Email:       c.Email,
		FullName:    c.FullName,
		RoleID:      c.RoleID,
		RoleName:    c.RoleName,
		Permissions: c.Permissions,
	}
}
