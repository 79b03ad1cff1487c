package departments

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Department, int, error)
	Get(ctx context.Context, id int64) (Department, error)
	Create(ctx context.Context, dept Department) (Department, error)
	Update(ctx context.Context, id int64, dept Department) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Department, int, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM departments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM departments WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		departments = append(departments, d)
	}
	return departments, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Department, error) {
	var d Department
	err := r.db.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Department{}, shared.TranslateDBError(err)
	}
	return d, nil
}

func (r *repository) Create(ctx context.Context, dept Department) (Department, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO departments (name, description, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		dept.Name, dept.Description, now, now).Scan(&dept.ID)
	if err != nil {
		return Department{}, shared.TranslateDBError(err)
	}
	dept.CreatedAt = now
	dept.UpdatedAt = now
	return dept, nil
}

func (r *repository) Update(ctx context.Context, id int64, dept Department) error {
	tag, err := r.db.Exec(ctx, `UPDATE departments SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		dept.Name, dept.Description, time.Now(), id)
	if err != nil {
		return shared.TranslateDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return shared.TranslateDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
