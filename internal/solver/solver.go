package solver

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

// Result 是一次求解的结果，只包含普通数据。
// 相同的输入、配置和种子总是得到相同的 Result，耗时由调用方自己统计。
type Result struct {
	Assignments []domain.TaskAssignment `json:"assignments" yaml:"assignments"`
	Score       Score                   `json:"score" yaml:"score"`
	Unassigned  []UnassignedTask        `json:"unassigned" yaml:"unassigned"`
	Steps       int                     `json:"steps" yaml:"steps"`
	Termination TerminationReason       `json:"termination" yaml:"termination"`
	Breakdown   map[string]int64        `json:"breakdown" yaml:"breakdown"` // 约束名 -> 已乘权重的惩罚
	Violations  []string                `json:"violations" yaml:"violations"`
}

// UnassignedIDs 返回未分配任务的 ID
func (r *Result) UnassignedIDs() []string {
	ids := make([]string, len(r.Unassigned))
	for i, u := range r.Unassigned {
		ids[i] = u.TaskID
	}
	return ids
}

type options struct {
	logger   *slog.Logger
	observer Observer
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Solve 阻塞直到终止条件满足或 ctx 被取消。
// 取消不是错误：此时返回目前为止最优的结果，Termination 为 Cancelled。
// 只有输入本身有问题时才会返回错误，没有完美的调度方案通过分数和未分配列表体现。
func Solve(ctx context.Context, tasks []domain.Task, employees []domain.Employee, cfg Config, opts ...Option) (*Result, error) {
	o := options{
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	started := time.Now()
	cfg = cfg.withDefaults()
	if err := ValidateInput(tasks, employees, cfg); err != nil {
		return nil, err
	}

	p, err := newProblem(tasks, employees, cfg)
	if err != nil {
		return nil, err
	}

	s := newSchedule(p)
	weights := resolveWeights(cfg)
	calc := newCalculator(s, weights)

	unassigned := construct(s, calc)
	o.logger.Info("构造阶段完成",
		slog.Int("tasks", len(tasks)),
		slog.Int("unassigned", len(unassigned)),
		slog.String("score", calc.Score().String()),
	)

	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	ls := &localSearch{
		cfg:      cfg,
		calc:     calc,
		schedule: s,
		selector: newMoveSelector(s, rng, cfg.Granularity),
		rng:      rng,
		term:     newTermination(cfg, started),
		observer: o.observer,
		logger:   o.logger,
		started:  started,
	}
	outcome := ls.run(ctx)

	result := &Result{
		Assignments: s.Assignments(),
		Score:       calc.Score(),
		Unassigned:  unassigned,
		Steps:       outcome.steps,
		Termination: outcome.reason,
		Breakdown:   make(map[string]int64),
	}
	for i, c := range constraints {
		if weights[i] != 0 {
			result.Breakdown[c.Name] = calc.Impact(c.ID)
		}
	}
	result.Violations = analyze(p, calc, unassigned)

	o.logger.Info("求解结束",
		slog.String("termination", string(outcome.reason)),
		slog.Int("steps", outcome.steps),
		slog.String("score", result.Score.String()),
		slog.Duration("duration", time.Since(started)),
	)

	return result, nil
}
