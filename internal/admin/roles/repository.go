package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/rbac"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the Postgres-backed role repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []rbac.Role
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (rbac.Role, error) {
	var role rbac.Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles
		WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rbac.Role{}, ErrNotFound
	}
	if err != nil {
		return rbac.Role{}, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (r *repository) GetPermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, role_id, module, action
		FROM role_permissions
		WHERE role_id = $1
		ORDER BY module, action`, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()

	var out []rbac.Permission
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.Module, &p.Action); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, role rbac.Role, perms []rbac.Permission) (rbac.Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return rbac.Role{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`,
		role.Name, role.Description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if isUniqueViolation(err) {
		return rbac.Role{}, ErrNameTaken
	}
	if err != nil {
		return rbac.Role{}, fmt.Errorf("insert role: %w", err)
	}

	if err := insertPermissions(ctx, tx, role.ID, perms); err != nil {
		return rbac.Role{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return rbac.Role{}, fmt.Errorf("commit: %w", err)
	}
	return role, nil
}

func (r *repository) Update(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE roles
		SET name = $1, description = $2, updated_at = now()
		WHERE id = $3
		RETURNING id, name, description, created_at, updated_at`,
		role.Name, role.Description, role.ID).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rbac.Role{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return rbac.Role{}, ErrNameTaken
	}
	if err != nil {
		return rbac.Role{}, fmt.Errorf("update role: %w", err)
	}
	return role, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return ErrRoleInUse
	}
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplacePermissions(ctx context.Context, roleID int64, perms []rbac.Permission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}
	if err := insertPermissions(ctx, tx, roleID, perms); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertPermissions(ctx context.Context, tx pgx.Tx, roleID int64, perms []rbac.Permission) error {
	for _, p := range perms {
		_, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, module, action)
			VALUES ($1, $2, $3)`, roleID, p.Module, p.Action)
		if err != nil {
			return fmt.Errorf("insert permission %s:%s: %w", p.Module, p.Action, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
