package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/utils"
)

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID            string            `json:"id" validate:"required,max=64"`
		Name          string            `json:"name" validate:"required"`
		Email         string            `json:"email" validate:"omitempty,email"`
		Skills        []string          `json:"skills" validate:"required,min=1,dive,required"`
		Unavailable   []domain.Interval `json:"unavailable" validate:"dive"`
		UndesiredDays []int             `json:"undesiredDays" validate:"dive,min=0"`
		DesiredDays   []int             `json:"desiredDays" validate:"dive,min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	e := &domain.Employee{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		Skills:        req.Skills,
		Unavailable:   req.Unavailable,
		UndesiredDays: req.UndesiredDays,
		DesiredDays:   req.DesiredDays,
	}
	if err := utils.ValidateEmployee(e); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateEmployee(e); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "employees_pkey":
				h.badRequest(w, r, errors.New("员工ID已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建员工成功", e)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EmployeeCtx).(*domain.Employee)
	h.successResponse(w, r, "获取员工信息成功", e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if err := h.repository.DeleteEmployee(e.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除员工成功", nil)
}
