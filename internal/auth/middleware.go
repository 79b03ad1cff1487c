package auth

import (
	"net/http"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TokenMiddleware resolves the session token from the cookie or the
// Authorization header and attaches the identity to the request context.
// Requests without a valid token continue anonymously; permission
// middleware decides whether that is acceptable per route.
func TokenMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw != "" {
				if claims, err := issuer.Parse(raw); err == nil {
					ctx := shared.ContextWithIdentity(r.Context(), claims.Identity())
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
