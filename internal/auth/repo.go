package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	RoleIDByName(ctx context.Context, name string) (int64, error)
	CreateUser(ctx context.Context, email, passwordHash, fullName string, roleID int64) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user with its role and flattened permissions.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
SELECT u.id, u.email, u.password_hash, u.full_name, COALESCE(u.phone, ''), u.status,
       COALESCE(u.role_id, 0), COALESCE(ro.name, ''), u.department_id, u.created_at, u.updated_at
FROM users u
LEFT JOIN roles ro ON ro.id = u.role_id
WHERE u.email = $1`, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Phone, &user.Status,
		&user.RoleID, &user.RoleName, &user.DepartmentID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT module, action FROM permissions WHERE role_id = $1 ORDER BY module, action`, user.RoleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var claim shared.PermissionClaim
		if err := rows.Scan(&claim.Module, &claim.Action); err != nil {
			return nil, err
		}
		user.Permissions = append(user.Permissions, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists checks for a registered email.
func (r *PGRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// RoleIDByName resolves a role id, used to attach the default role at
// self-registration.
func (r *PGRepository) RoleIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// CreateUser inserts an active user and returns it with role data loaded.
func (r *PGRepository) CreateUser(ctx context.Context, email, passwordHash, fullName string, roleID int64) (*User, error) {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (email, password_hash, full_name, status, role_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`, email, passwordHash, fullName, StatusActive, roleID)
	if err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

var _ Repository = (*PGRepository)(nil)
