package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func claims(perms []Permission) []shared.PermissionClaim {
	out := make([]shared.PermissionClaim, 0, len(perms))
	for _, p := range perms {
		out = append(out, shared.PermissionClaim{Module: string(p.Module), Action: string(p.Action)})
	}
	return out
}

func TestHasPermissionExactMatchOnly(t *testing.T) {
	perms := claims([]Permission{
		{Module: ModuleInventory, Action: ActionRead},
		{Module: ModuleInventory, Action: ActionWrite},
	})

	require.True(t, HasPermission(perms, ModuleInventory, ActionRead))
	require.True(t, HasPermission(perms, ModuleInventory, ActionWrite))
	require.False(t, HasPermission(perms, ModuleInventory, ActionDelete))
	require.False(t, HasPermission(perms, ModuleSales, ActionRead))
	require.False(t, HasPermission(nil, ModuleInventory, ActionRead))
}

func TestHasPermissionCoversEveryPairInMatrix(t *testing.T) {
	for role, granted := range DefaultPermissions {
		perms := claims(granted)
		set := make(map[Permission]struct{}, len(granted))
		for _, p := range granted {
			set[Permission{Module: p.Module, Action: p.Action}] = struct{}{}
		}
		for _, module := range []Module{ModuleDashboard, ModuleMasterData, ModuleInventory, ModulePurchase, ModuleSales, ModuleAccounts, ModuleReports, ModuleSettings, ModuleAdmin} {
			for _, action := range []Action{ActionRead, ActionWrite, ActionDelete, ActionApprove} {
				_, want := set[Permission{Module: module, Action: action}]
				require.Equal(t, want, HasPermission(perms, module, action),
					"role %s module %s action %s", role, module, action)
			}
		}
	}
}

func TestCanAccessRoute(t *testing.T) {
	user := claims(DefaultPermissions["User"])

	require.True(t, CanAccessRoute(user, "/sales/orders"))
	require.True(t, CanAccessRoute(user, "/sales/orders/42"))
	require.False(t, CanAccessRoute(user, "/accounts/vouchers"))
	require.False(t, CanAccessRoute(user, "/admin/users"))

	// Unmapped prefixes are allowed by policy.
	require.True(t, CanAccessRoute(user, "/healthz"))
	require.True(t, CanAccessRoute(nil, "/totally/unknown"))
}

func TestCanAccessRouteLongestPrefixWins(t *testing.T) {
	// admin read only on /admin, not /admin/users: /admin/users still maps
	// to its own rule, which requires the same grant here, so grant both
	// and then remove the nested one to prove the nested rule is consulted.
	adminOnly := []shared.PermissionClaim{{Module: string(ModuleAdmin), Action: string(ActionRead)}}
	require.True(t, CanAccessRoute(adminOnly, "/admin"))
	require.True(t, CanAccessRoute(adminOnly, "/admin/users"))

	salesOnly := []shared.PermissionClaim{{Module: string(ModuleSales), Action: string(ActionRead)}}
	require.False(t, CanAccessRoute(salesOnly, "/admin/users/7"))
}

func TestCanAccessRouteCoversMountedPurchasePaths(t *testing.T) {
	purchase := []shared.PermissionClaim{{Module: string(ModulePurchase), Action: string(ActionRead)}}
	salesOnly := []shared.PermissionClaim{{Module: string(ModuleSales), Action: string(ActionRead)}}

	// The rule prefix must match the paths the purchase handler mounts,
	// otherwise lookups fall into the unmapped-route allowance.
	for _, path := range []string{"/purchase/lcs", "/purchase/lcs/7", "/purchase/lcs/7/costs"} {
		require.True(t, CanAccessRoute(purchase, path), "path %s", path)
		require.False(t, CanAccessRoute(salesOnly, path), "path %s", path)
	}
}

func TestDefaultPermissionsForRole(t *testing.T) {
	require.NotEmpty(t, DefaultPermissionsForRole("Admin"))
	require.Empty(t, DefaultPermissionsForRole("Ghost"))
}

func TestValidModuleAction(t *testing.T) {
	require.True(t, ValidModule(ModuleAccounts))
	require.False(t, ValidModule(Module("warehouse")))
	require.True(t, ValidAction(ActionApprove))
	require.False(t, ValidAction(Action("execute")))
}
