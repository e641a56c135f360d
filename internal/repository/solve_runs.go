package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

const solveRunColumns = `
	id, status, requested_by, project_ids, parameters, hard_score, soft_score, steps,
	termination, unassigned, violations, error, created_at, finished_at, version
`

func scanSolveRun(row rowScanner) (*domain.SolveRun, error) {
	run := &domain.SolveRun{}
	var params []byte
	dst := []any{
		&run.ID,
		&run.Status,
		&run.RequestedBy,
		scanJSONB(&run.ProjectIDs),
		&params,
		&run.HardScore,
		&run.SoftScore,
		&run.Steps,
		&run.Termination,
		scanJSONB(&run.Unassigned),
		scanJSONB(&run.Violations),
		&run.Error,
		&run.CreatedAt,
		&run.FinishedAt,
		&run.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	run.Parameters = params
	run.Assignments = make([]domain.TaskAssignment, 0)
	return run, nil
}

func (r *Repository) CreateSolveRun(run *domain.SolveRun) error {
	projectIDs, err := jsonb(run.ProjectIDs)
	if err != nil {
		return err
	}
	params := []byte(run.Parameters)
	if len(params) == 0 {
		params = []byte("{}")
	}

	query := `
		INSERT INTO solve_runs (id, status, requested_by, project_ids, parameters)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{run.ID, run.Status, run.RequestedBy, projectIDs, params}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.CreatedAt, &run.Version)
}

// GetSolveRunByID 同时读取该次求解的全部分配结果
func (r *Repository) GetSolveRunByID(id string) (*domain.SolveRun, error) {
	ctx, cancel := r.txContext()
	defer cancel()

	query := `SELECT ` + solveRunColumns + ` FROM solve_runs WHERE id = $1`
	run, err := scanSolveRun(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	run.Assignments, err = r.getSolveRunAssignments(ctx, id)
	if err != nil {
		return nil, err
	}

	return run, nil
}

func (r *Repository) getSolveRunAssignments(ctx context.Context, runID string) ([]domain.TaskAssignment, error) {
	query := `
		SELECT task_id, employee_id, start_minute, end_minute, pinned
		FROM solve_run_assignments
		WHERE solve_run_id = $1
		ORDER BY start_minute, task_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.TaskAssignment, 0)
	for rows.Next() {
		var a domain.TaskAssignment
		if err := rows.Scan(&a.TaskID, &a.EmployeeID, &a.Start, &a.End, &a.Pinned); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// GetAllSolveRuns 只返回概要信息，不包含分配结果
func (r *Repository) GetAllSolveRuns() ([]*domain.SolveRun, error) {
	query := `SELECT ` + solveRunColumns + ` FROM solve_runs ORDER BY created_at DESC`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.SolveRun, 0)
	for rows.Next() {
		run, err := scanSolveRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// MarkSolveRunRunning 只允许从 pending 转到 running，重复投递的消息会得到 sql.ErrNoRows
func (r *Repository) MarkSolveRunRunning(run *domain.SolveRun) error {
	query := `
		UPDATE solve_runs
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{domain.SolveRunRunning, run.ID, domain.SolveRunPending, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return err
	}
	run.Status = domain.SolveRunRunning

	return nil
}

// SaveSolveRunResult 覆盖之前保存的分配结果并把状态置为 finished
func (r *Repository) SaveSolveRunResult(run *domain.SolveRun) error {
	unassigned, err := jsonb(run.Unassigned)
	if err != nil {
		return err
	}
	violations, err := jsonb(run.Violations)
	if err != nil {
		return err
	}

	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的分配结果删除
	query := `DELETE FROM solve_run_assignments WHERE solve_run_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.ID); err != nil {
		return err
	}

	for _, a := range run.Assignments {
		query := `
			INSERT INTO solve_run_assignments (solve_run_id, task_id, employee_id, start_minute, end_minute, pinned)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, run.ID, a.TaskID, a.EmployeeID, a.Start, a.End, a.Pinned); err != nil {
			return err
		}
	}

	query = `
		UPDATE solve_runs
		SET
			status = $1,
			hard_score = $2,
			soft_score = $3,
			steps = $4,
			termination = $5,
			unassigned = $6,
			violations = $7,
			error = '',
			finished_at = NOW(),
			version = version + 1
		WHERE id = $8
		RETURNING finished_at, version
	`

	args := []any{domain.SolveRunFinished, run.HardScore, run.SoftScore, run.Steps, run.Termination, unassigned, violations, run.ID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	run.Status = domain.SolveRunFinished

	return nil
}

func (r *Repository) MarkSolveRunFailed(run *domain.SolveRun, cause error) error {
	query := `
		UPDATE solve_runs
		SET status = $1, error = $2, finished_at = NOW(), version = version + 1
		WHERE id = $3
		RETURNING finished_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, domain.SolveRunFailed, cause.Error(), run.ID).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.SolveRunFailed
	run.Error = cause.Error()

	return nil
}

func (r *Repository) DeleteSolveRun(id string) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM solve_runs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return nil
}
