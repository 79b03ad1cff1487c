// Package rbac implements the coarse module/action permission model.
// Permission is granted through a user's single role; checks run against
// the permission snapshot baked into the session token at login.
package rbac

import "time"

// Module identifies a functional area of the application.
type Module string

// Modules covered by the permission matrix.
const (
	ModuleDashboard  Module = "dashboard"
	ModuleMasterData Module = "master_data"
	ModuleInventory  Module = "inventory"
	ModulePurchase   Module = "purchase"
	ModuleSales      Module = "sales"
	ModuleAccounts   Module = "accounts"
	ModuleReports    Module = "reports"
	ModuleSettings   Module = "settings"
	ModuleAdmin      Module = "admin"
)

// Action identifies an operation class within a module.
type Action string

// Actions recognised by the permission matrix.
const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// Permission is a (module, action) grant scoped to a role.
// (role_id, module, action) is unique.
type Permission struct {
	ID     int64  `json:"id,omitempty"`
	RoleID int64  `json:"role_id,omitempty"`
	Module Module `json:"module"`
	Action Action `json:"action"`
}

// Role groups permissions. Roles are seeded once and rarely mutated;
// a role is never deleted while users reference it.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidModule reports whether m is a known module name.
func ValidModule(m Module) bool {
	switch m {
	case ModuleDashboard, ModuleMasterData, ModuleInventory, ModulePurchase,
		ModuleSales, ModuleAccounts, ModuleReports, ModuleSettings, ModuleAdmin:
		return true
	}
	return false
}

// ValidAction reports whether a is a known action name.
func ValidAction(a Action) bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionApprove:
		return true
	}
	return false
}
