package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/utils"
)

// GetTasks 支持 ?project=a,b 过滤项目
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	var projectIDs []string
	if project := r.URL.Query().Get("project"); project != "" {
		projectIDs = strings.Split(project, ",")
	}

	tasks, err := h.repository.GetTasks(projectIDs)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取任务列表成功", tasks)
}

// CreateTasks 批量导入任务，整个批次连同已有任务必须构成合法的依赖图
func (h *Handler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tasks []domain.Task `json:"tasks" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateTaskBatch(req.Tasks); err != nil {
		h.badRequest(w, r, err)
		return
	}

	existing, err := h.repository.GetTasks(nil)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	all := make([]domain.Task, 0, len(existing)+len(req.Tasks))
	for _, t := range existing {
		all = append(all, *t)
	}
	all = append(all, req.Tasks...)
	if err := solver.CheckTaskGraph(all); err != nil {
		h.solverError(w, r, err)
		return
	}

	tasks := make([]*domain.Task, len(req.Tasks))
	for i := range req.Tasks {
		tasks[i] = &req.Tasks[i]
	}

	if err := h.repository.CreateTasks(tasks); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "tasks_pkey":
				h.badRequest(w, r, errors.New("任务ID已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "导入任务成功", tasks)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dependents, err := h.repository.CountDependents(id)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if dependents > 0 {
		h.errorResponse(w, r, "有其他任务依赖该任务，无法删除")
		return
	}

	if err := h.repository.DeleteTask(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "任务不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除任务成功", nil)
}
