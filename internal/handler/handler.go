package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/cache"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	solveConfig solver.Config
	repository  *repository.Repository
	translator  ut.Translator
	publisher   *queue.Publisher
	progress    *cache.ProgressCache
	metrics     *metrics.Metrics

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher *queue.Publisher, progress *cache.ProgressCache, m *metrics.Metrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	solveConfig, err := cfg.SolveConfig()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		solveConfig: solveConfig,
		repository:  repo,
		translator:  trans,
		publisher:   publisher,
		progress:    progress,
		metrics:     m,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Handle("/metrics", h.metrics.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.CreateEmployee)
			r.Get("/", h.GetAllEmployees)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.employee)
				r.Get("/", h.GetEmployee)
				r.Delete("/", h.DeleteEmployee)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.CreateTasks)
			r.Get("/", h.GetTasks)
			r.Delete("/{id}", h.DeleteTask)
		})

		r.Route("/solve-runs", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.CreateSolveRun)
			r.Get("/", h.GetAllSolveRuns)
			r.Post("/preview", h.PreviewSolve)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.solveRun)
				r.Get("/", h.GetSolveRun)
				r.Delete("/", h.DeleteSolveRun)
			})
		})
	})
}
