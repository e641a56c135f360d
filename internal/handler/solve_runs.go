package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/cache"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/runner"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

func (h *Handler) checkParameters(p runner.Parameters) error {
	if err := h.validate.Struct(p); err != nil {
		return err
	}
	for name, weight := range p.ConstraintWeights {
		if _, ok := solver.ConstraintByName(name); !ok {
			return fmt.Errorf("未知的约束 %s", name)
		}
		if weight < 0 {
			return fmt.Errorf("约束 %s 的权重不能为负数", name)
		}
	}
	return nil
}

// CreateSolveRun 只负责登记求解任务并投递到队列，真正的求解由 worker 完成
func (h *Handler) CreateSolveRun(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		ProjectIDs []string          `json:"projectIDs" validate:"dive,required"`
		Parameters runner.Parameters `json:"parameters"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.checkParameters(req.Parameters); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params, err := json.Marshal(req.Parameters)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	run := &domain.SolveRun{
		ID:          uuid.NewString(),
		Status:      domain.SolveRunPending,
		RequestedBy: myInfo.ID,
		ProjectIDs:  req.ProjectIDs,
		Parameters:  params,
		Unassigned:  []string{},
		Violations:  []string{},
		Assignments: []domain.TaskAssignment{},
	}
	if err := h.repository.CreateSolveRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.Publish(r.Context(), queue.SolveQueue, domain.SolveJob{RunID: run.ID}); err != nil {
		if markErr := h.repository.MarkSolveRunFailed(run, errors.New("无法投递到求解队列")); markErr != nil {
			err = errors.Join(err, markErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "求解任务已提交", run)
}

func (h *Handler) GetAllSolveRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllSolveRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取求解任务列表成功", runs)
}

// GetSolveRun 在求解进行中时附带 redis 中的最新进度
func (h *Handler) GetSolveRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)

	resp := struct {
		*domain.SolveRun
		Progress *domain.SolveProgress `json:"progress,omitempty"`
	}{SolveRun: run}

	if run.Status == domain.SolveRunRunning {
		p, err := h.progress.Get(r.Context(), run.ID)
		switch {
		case err == nil:
			resp.Progress = &p
		case errors.Is(err, cache.ErrNoProgress):
		default:
			// 进度只是附加信息，读取失败不影响返回求解任务本身
			slog.Warn("无法读取求解进度", "run", run.ID, "error", err)
		}
	}

	h.successResponse(w, r, "获取求解任务成功", resp)
}

func (h *Handler) DeleteSolveRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)

	if run.Status == domain.SolveRunRunning {
		h.errorResponse(w, r, "求解任务正在运行，无法删除")
		return
	}

	if err := h.repository.DeleteSolveRun(run.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除求解任务成功", nil)
}

type previewRequest struct {
	// 不提供任务和员工时使用数据库中的数据
	ProjectIDs []string          `json:"projectIDs" validate:"dive,required"`
	Tasks      []domain.Task     `json:"tasks" validate:"dive"`
	Employees  []domain.Employee `json:"employees" validate:"dive"`
	Parameters runner.Parameters `json:"parameters"`
}

// PreviewSolve 同步求解但不保存结果，耗时受 SOLVER_PREVIEW_TIMEOUT 限制
func (h *Handler) PreviewSolve(w http.ResponseWriter, r *http.Request) {
	var req previewRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.checkParameters(req.Parameters); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tasks, employees := req.Tasks, req.Employees
	if len(tasks) == 0 {
		stored, err := h.repository.GetTasks(req.ProjectIDs)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		for _, t := range stored {
			tasks = append(tasks, *t)
		}
	}
	if len(employees) == 0 {
		stored, err := h.repository.GetAllEmployees()
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		for _, e := range stored {
			employees = append(employees, *e)
		}
	}

	cfg := req.Parameters.Apply(h.solveConfig)
	timeout := time.Duration(h.config.Solver.PreviewTimeout) * time.Second
	if cfg.MaxDuration == 0 || cfg.MaxDuration > timeout {
		cfg.MaxDuration = timeout
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	started := time.Now()
	result, err := solver.Solve(ctx, tasks, employees, cfg, solver.WithLogger(slog.Default().With("mode", "preview")))
	if err != nil {
		h.solverError(w, r, err)
		return
	}
	h.metrics.ObserveResult("preview", result, time.Since(started))

	h.successResponse(w, r, "预览求解完成", result)
}
