package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

const employeeColumns = `id, name, email, skills, unavailable, undesired_days, desired_days, created_at, version`

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	dst := []any{
		&e.ID,
		&e.Name,
		&e.Email,
		scanJSONB(&e.Skills),
		scanJSONB(&e.Unavailable),
		scanJSONB(&e.UndesiredDays),
		scanJSONB(&e.DesiredDays),
		&e.CreatedAt,
		&e.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at, id`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *Repository) GetEmployeeByID(id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanEmployee(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) CreateEmployee(e *domain.Employee) error {
	skills, err := jsonb(e.Skills)
	if err != nil {
		return err
	}
	unavailable, err := jsonb(e.Unavailable)
	if err != nil {
		return err
	}
	undesired, err := jsonb(e.UndesiredDays)
	if err != nil {
		return err
	}
	desired, err := jsonb(e.DesiredDays)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO employees (id, name, email, skills, unavailable, undesired_days, desired_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{e.ID, e.Name, e.Email, skills, unavailable, undesired, desired}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.CreatedAt, &e.Version)
}

func (r *Repository) DeleteEmployee(id string) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return nil
}
