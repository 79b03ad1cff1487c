package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/rbac"
)

type memoryRepo struct {
	nextID int64
	roles  map[int64]rbac.Role
	perms  map[int64][]rbac.Permission
	inUse  map[int64]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		roles: make(map[int64]rbac.Role),
		perms: make(map[int64][]rbac.Permission),
		inUse: make(map[int64]bool),
	}
}

func (m *memoryRepo) List(ctx context.Context) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return rbac.Role{}, ErrNotFound
	}
	return role, nil
}

func (m *memoryRepo) GetPermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	return m.perms[roleID], nil
}

func (m *memoryRepo) Create(ctx context.Context, role rbac.Role, perms []rbac.Permission) (rbac.Role, error) {
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return rbac.Role{}, ErrNameTaken
		}
	}
	m.nextID++
	role.ID = m.nextID
	m.roles[role.ID] = role
	m.perms[role.ID] = perms
	return role, nil
}

func (m *memoryRepo) Update(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	if _, ok := m.roles[role.ID]; !ok {
		return rbac.Role{}, ErrNotFound
	}
	m.roles[role.ID] = role
	return role, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	if m.inUse[id] {
		return ErrRoleInUse
	}
	delete(m.roles, id)
	delete(m.perms, id)
	return nil
}

func (m *memoryRepo) ReplacePermissions(ctx context.Context, roleID int64, perms []rbac.Permission) error {
	m.perms[roleID] = perms
	return nil
}

func TestCreateSeedsDefaultPermissions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), "Manager", "department oversight", 1)
	require.NoError(t, err)
	require.Equal(t, "Manager", created.Name)
	require.Equal(t, rbac.DefaultPermissionsForRole("Manager"), created.Permissions)
	require.NotEmpty(t, created.Permissions)
}

func TestCreateUnknownRoleNameStartsEmpty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), "auditor", "", 1)
	require.NoError(t, err)
	require.Empty(t, created.Permissions)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), "   ", "", 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), "manager", "", 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "manager", "again", 1)
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestSetPermissionsReplacesAndDedupes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), "accountant", "", 1)
	require.NoError(t, err)

	updated, err := svc.SetPermissions(context.Background(), created.ID, []rbac.Permission{
		{Module: rbac.ModuleAccounts, Action: rbac.ActionRead},
		{Module: rbac.ModuleAccounts, Action: rbac.ActionRead},
		{Module: rbac.ModuleReports, Action: rbac.ActionRead},
	}, 1)
	require.NoError(t, err)
	require.Len(t, updated.Permissions, 2)
	require.Equal(t, rbac.ModuleAccounts, updated.Permissions[0].Module)
	require.Equal(t, rbac.ModuleReports, updated.Permissions[1].Module)
}

func TestSetPermissionsRejectsUnknownModuleOrAction(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), "clerk", "", 1)
	require.NoError(t, err)

	_, err = svc.SetPermissions(context.Background(), created.ID, []rbac.Permission{
		{Module: "payroll", Action: rbac.ActionRead},
	}, 1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetPermissions(context.Background(), created.ID, []rbac.Permission{
		{Module: rbac.ModuleSales, Action: "execute"},
	}, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteBlockedWhileUsersReferenceRole(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), "manager", "", 1)
	require.NoError(t, err)
	repo.inUse[created.ID] = true

	err = svc.Delete(context.Background(), created.ID, 1)
	require.ErrorIs(t, err, ErrRoleInUse)

	repo.inUse[created.ID] = false
	require.NoError(t, svc.Delete(context.Background(), created.ID, 1))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
