package shared

import "context"

// PermissionClaim is one flattened (module, action) grant baked into the
// session token at login time.
type PermissionClaim struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// Identity describes the authenticated actor as captured in the session
// token. The permission list is a snapshot taken at login and is not
// re-read from the database per request.
type Identity struct {
	UserID      int64
	Email       string
	FullName    string
	RoleID      int64
	RoleName    string
	Permissions []PermissionClaim
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, nil when the
// request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
