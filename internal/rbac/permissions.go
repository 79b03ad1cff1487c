package rbac

import (
	"sort"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// HasPermission reports whether the snapshot contains an exact
// (module, action) match. There is no wildcard, hierarchy or inheritance.
func HasPermission(perms []shared.PermissionClaim, module Module, action Action) bool {
	for _, p := range perms {
		if p.Module == string(module) && p.Action == string(action) {
			return true
		}
	}
	return false
}

// routeRule maps a path prefix to its required permission.
type routeRule struct {
	prefix string
	module Module
	action Action
}

// routeRules maps API route prefixes to required permissions. Longest
// matching prefix wins; paths with no matching prefix are allowed
// (fail-open for unmapped routes, a deliberate policy).
var routeRules = buildRouteRules(map[string]Permission{
	"/dashboard":             {Module: ModuleDashboard, Action: ActionRead},
	"/master/items":          {Module: ModuleMasterData, Action: ActionRead},
	"/master/customers":      {Module: ModuleMasterData, Action: ActionRead},
	"/master/suppliers":      {Module: ModuleMasterData, Action: ActionRead},
	"/master/locations":      {Module: ModuleMasterData, Action: ActionRead},
	"/master/departments":    {Module: ModuleMasterData, Action: ActionRead},
	"/inventory/stock":       {Module: ModuleInventory, Action: ActionRead},
	"/inventory/receive":     {Module: ModuleInventory, Action: ActionWrite},
	"/inventory/issue":       {Module: ModuleInventory, Action: ActionWrite},
	"/inventory/ledger":      {Module: ModuleInventory, Action: ActionRead},
	"/purchase/requisitions": {Module: ModulePurchase, Action: ActionRead},
	"/purchase/orders":       {Module: ModulePurchase, Action: ActionRead},
	"/purchase/lcs":          {Module: ModulePurchase, Action: ActionRead},
	"/purchase/bills":        {Module: ModulePurchase, Action: ActionRead},
	"/sales/quotations":      {Module: ModuleSales, Action: ActionRead},
	"/sales/orders":          {Module: ModuleSales, Action: ActionRead},
	"/sales/delivery":        {Module: ModuleSales, Action: ActionRead},
	"/sales/invoices":        {Module: ModuleSales, Action: ActionRead},
	"/accounts/chart":        {Module: ModuleAccounts, Action: ActionRead},
	"/accounts/vouchers":     {Module: ModuleAccounts, Action: ActionRead},
	"/accounts/payments":     {Module: ModuleAccounts, Action: ActionRead},
	"/accounts/receivables":  {Module: ModuleAccounts, Action: ActionRead},
	"/accounts/payables":     {Module: ModuleAccounts, Action: ActionRead},
	"/settings":              {Module: ModuleSettings, Action: ActionRead},
	"/admin":                 {Module: ModuleAdmin, Action: ActionRead},
	"/admin/users":           {Module: ModuleAdmin, Action: ActionRead},
	"/admin/roles":           {Module: ModuleAdmin, Action: ActionRead},
})

func buildRouteRules(table map[string]Permission) []routeRule {
	rules := make([]routeRule, 0, len(table))
	for prefix, perm := range table {
		rules = append(rules, routeRule{prefix: prefix, module: perm.Module, action: perm.Action})
	}
	// Longest prefix first so /admin/users beats /admin.
	sort.Slice(rules, func(i, j int) bool {
		return len(rules[i].prefix) > len(rules[j].prefix)
	})
	return rules
}

// CanAccessRoute checks the snapshot against the longest registered route
// prefix for path. Unregistered paths are allowed.
func CanAccessRoute(perms []shared.PermissionClaim, path string) bool {
	for _, rule := range routeRules {
		if path == rule.prefix || strings.HasPrefix(path, rule.prefix+"/") {
			return HasPermission(perms, rule.module, rule.action)
		}
	}
	return true
}

// DefaultPermissions is the seeded permission matrix per role name.
var DefaultPermissions = map[string][]Permission{
	"Admin": {
		{Module: ModuleDashboard, Action: ActionRead},
		{Module: ModuleMasterData, Action: ActionRead},
		{Module: ModuleMasterData, Action: ActionWrite},
		{Module: ModuleMasterData, Action: ActionDelete},
		{Module: ModuleInventory, Action: ActionRead},
		{Module: ModuleInventory, Action: ActionWrite},
		{Module: ModuleInventory, Action: ActionDelete},
		{Module: ModuleInventory, Action: ActionApprove},
		{Module: ModulePurchase, Action: ActionRead},
		{Module: ModulePurchase, Action: ActionWrite},
		{Module: ModulePurchase, Action: ActionDelete},
		{Module: ModulePurchase, Action: ActionApprove},
		{Module: ModuleSales, Action: ActionRead},
		{Module: ModuleSales, Action: ActionWrite},
		{Module: ModuleSales, Action: ActionDelete},
		{Module: ModuleSales, Action: ActionApprove},
		{Module: ModuleAccounts, Action: ActionRead},
		{Module: ModuleAccounts, Action: ActionWrite},
		{Module: ModuleAccounts, Action: ActionDelete},
		{Module: ModuleAccounts, Action: ActionApprove},
		{Module: ModuleReports, Action: ActionRead},
		{Module: ModuleSettings, Action: ActionRead},
		{Module: ModuleSettings, Action: ActionWrite},
		{Module: ModuleAdmin, Action: ActionRead},
		{Module: ModuleAdmin, Action: ActionWrite},
		{Module: ModuleAdmin, Action: ActionDelete},
	},
	"Manager": {
		{Module: ModuleDashboard, Action: ActionRead},
		{Module: ModuleMasterData, Action: ActionRead},
		{Module: ModuleMasterData, Action: ActionWrite},
		{Module: ModuleInventory, Action: ActionRead},
		{Module: ModuleInventory, Action: ActionWrite},
		{Module: ModuleInventory, Action: ActionApprove},
		{Module: ModulePurchase, Action: ActionRead},
		{Module: ModulePurchase, Action: ActionWrite},
		{Module: ModulePurchase, Action: ActionApprove},
		{Module: ModuleSales, Action: ActionRead},
		{Module: ModuleSales, Action: ActionWrite},
		{Module: ModuleSales, Action: ActionApprove},
		{Module: ModuleAccounts, Action: ActionRead},
		{Module: ModuleAccounts, Action: ActionWrite},
		{Module: ModuleReports, Action: ActionRead},
	},
	"User": {
		{Module: ModuleDashboard, Action: ActionRead},
		{Module: ModuleMasterData, Action: ActionRead},
		{Module: ModuleInventory, Action: ActionRead},
		{Module: ModuleInventory, Action: ActionWrite},
		{Module: ModulePurchase, Action: ActionRead},
		{Module: ModulePurchase, Action: ActionWrite},
		{Module: ModuleSales, Action: ActionRead},
		{Module: ModuleSales, Action: ActionWrite},
	},
}

// DefaultPermissionsForRole returns the seeded matrix for roleName, empty
// for unknown roles.
func DefaultPermissionsForRole(roleName string) []Permission {
	return DefaultPermissions[roleName]
}
