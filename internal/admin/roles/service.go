// Package roles implements role administration and permission grants.
package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	ErrNotFound   = errors.New("roles: not found")
	ErrNameTaken  = errors.New("roles: name already exists")
	ErrRoleInUse  = errors.New("roles: role is assigned to users and cannot be deleted")
	ErrValidation = errors.New("roles: validation failed")
)

// RoleWithPermissions is a role plus its flattened grant set.
type RoleWithPermissions struct {
	rbac.Role
	Permissions []rbac.Permission `json:"permissions"`
}

// Repository persists roles and their permission grants.
type Repository interface {
	List(ctx context.Context) ([]rbac.Role, error)
	Get(ctx context.Context, id int64) (rbac.Role, error)
	GetPermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error)
	Create(ctx context.Context, role rbac.Role, perms []rbac.Permission) (rbac.Role, error)
	Update(ctx context.Context, role rbac.Role) (rbac.Role, error)
	Delete(ctx context.Context, id int64) error
	ReplacePermissions(ctx context.Context, roleID int64, perms []rbac.Permission) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements role administration.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service. audit may be nil in tests.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]rbac.Role, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (RoleWithPermissions, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	perms, err := s.repo.GetPermissions(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return RoleWithPermissions{Role: role, Permissions: perms}, nil
}

// Create stores the role seeded with the default grants for its name.
func (s *Service) Create(ctx context.Context, name, description string, actorID int64) (RoleWithPermissions, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleWithPermissions{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	seeded := rbac.DefaultPermissionsForRole(name)
	role, err := s.repo.Create(ctx, rbac.Role{Name: name, Description: description}, seeded)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	s.recordAudit(ctx, actorID, "admin:role_created", role.Name)
	return s.Get(ctx, role.ID)
}

func (s *Service) Update(ctx context.Context, id int64, name, description string, actorID int64) (rbac.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return rbac.Role{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return rbac.Role{}, err
	}
	role.Name = name
	role.Description = description
	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		return rbac.Role{}, err
	}
	s.recordAudit(ctx, actorID, "admin:role_updated", updated.Name)
	return updated, nil
}

// Delete removes a role no user references.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "admin:role_deleted", role.Name)
	return nil
}

// SetPermissions replaces the role's entire grant set.
func (s *Service) SetPermissions(ctx context.Context, id int64, perms []rbac.Permission, actorID int64) (RoleWithPermissions, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	seen := make(map[string]struct{}, len(perms))
	deduped := make([]rbac.Permission, 0, len(perms))
	for _, p := range perms {
		if !rbac.ValidModule(p.Module) {
			return RoleWithPermissions{}, fmt.Errorf("%w: unknown module %q", ErrValidation, p.Module)
		}
		if !rbac.ValidAction(p.Action) {
			return RoleWithPermissions{}, fmt.Errorf("%w: unknown action %q", ErrValidation, p.Action)
		}
		key := string(p.Module) + ":" + string(p.Action)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, rbac.Permission{Module: p.Module, Action: p.Action})
	}
	if err := s.repo.ReplacePermissions(ctx, id, deduped); err != nil {
		return RoleWithPermissions{}, err
	}
	s.recordAudit(ctx, actorID, "admin:role_permissions_replaced", role.Name)
	return s.Get(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, roleName string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: roleName,
	})
}
