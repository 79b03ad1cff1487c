package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Middleware gates handlers on permissions carried in the session token.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current identity holds the (module, action) grant.
// Anonymous requests get 401, authenticated requests without the grant 403.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := shared.IdentityFromContext(r.Context())
			if ident == nil {
				httpx.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !HasPermission(ident.Permissions, module, action) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.Int64("user_id", ident.UserID),
						slog.String("module", string(module)),
						slog.String("action", string(action)),
						slog.String("path", r.URL.Path))
				}
				httpx.Fail(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated only checks that an identity is present.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IdentityFromContext(r.Context()) == nil {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
