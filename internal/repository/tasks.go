package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

const taskColumns = `
	id, project_id, description, sequence, duration, required_skills, predecessors,
	earliest_start, pinned, pinned_start, pinned_employee_id, created_at, version
`

func scanTask(row rowScanner) (*domain.Task, error) {
	t := &domain.Task{}
	dst := []any{
		&t.ID,
		&t.ProjectID,
		&t.Description,
		&t.Sequence,
		&t.Duration,
		scanJSONB(&t.RequiredSkills),
		scanJSONB(&t.Predecessors),
		&t.EarliestStart,
		&t.Pinned,
		&t.PinnedStart,
		&t.PinnedEmployeeID,
		&t.CreatedAt,
		&t.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTasks 返回指定项目中的任务，projectIDs 为空时返回全部任务。
// 结果按创建顺序排列，这也是求解时项目出现的顺序。
func (r *Repository) GetTasks(projectIDs []string) ([]*domain.Task, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	var rows *sql.Rows
	var err error
	if len(projectIDs) == 0 {
		rows, err = r.dbpool.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, sequence, id`)
	} else {
		rows, err = r.dbpool.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ANY($1) ORDER BY created_at, sequence, id`, projectIDs)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// CreateTasks 在一个事务中插入一批任务，任意一个失败则全部回滚
func (r *Repository) CreateTasks(tasks []*domain.Task) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO tasks (
			id, project_id, description, sequence, duration, required_skills, predecessors,
			earliest_start, pinned, pinned_start, pinned_employee_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, version
	`

	for _, t := range tasks {
		skills, err := jsonb(t.RequiredSkills)
		if err != nil {
			return err
		}
		preds, err := jsonb(t.Predecessors)
		if err != nil {
			return err
		}

		args := []any{
			t.ID,
			t.ProjectID,
			t.Description,
			t.Sequence,
			t.Duration,
			skills,
			preds,
			t.EarliestStart,
			t.Pinned,
			t.PinnedStart,
			t.PinnedEmployeeID,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&t.CreatedAt, &t.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteTask(id string) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CountDependents 返回以 id 为前置任务的任务数量
func (r *Repository) CountDependents(id string) (int, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	var n int
	query := `SELECT COUNT(*) FROM tasks WHERE predecessors @> jsonb_build_array($1::text)`
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}
