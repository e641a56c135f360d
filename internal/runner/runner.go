package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

// Store 是 runner 需要的持久化操作，由 repository.Repository 实现
type Store interface {
	GetSolveRunByID(id string) (*domain.SolveRun, error)
	MarkSolveRunRunning(run *domain.SolveRun) error
	SaveSolveRunResult(run *domain.SolveRun) error
	MarkSolveRunFailed(run *domain.SolveRun, cause error) error
	GetTasks(projectIDs []string) ([]*domain.Task, error)
	GetAllEmployees() ([]*domain.Employee, error)
	GetUserByID(id int64) (*domain.User, error)
}

// ProgressSink 由 cache.ProgressCache 实现
type ProgressSink interface {
	Set(ctx context.Context, runID string, p domain.SolveProgress) error
	Delete(ctx context.Context, runID string) error
}

// Publisher 由 queue.Publisher 实现
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// ErrRetryable 表示求解任务没有被处理，消息应该重新入队
var ErrRetryable = errors.New("solve run can be retried")

type Runner struct {
	store     Store
	progress  ProgressSink
	publisher Publisher
	metrics   *metrics.Metrics
	base      solver.Config
	buffer    int
	logger    *slog.Logger
}

func New(store Store, progress ProgressSink, publisher Publisher, m *metrics.Metrics, base solver.Config, buffer int, logger *slog.Logger) *Runner {
	return &Runner{
		store:     store,
		progress:  progress,
		publisher: publisher,
		metrics:   m,
		base:      base,
		buffer:    buffer,
		logger:    logger,
	}
}

// Execute 完成一次异步求解。
// 已经被处理过的求解任务会被直接跳过，因此重复投递的消息是安全的。
// 输入有问题或结果无法保存时求解任务被标记为 failed，同时返回错误。
// 求解任务还没有开始时遇到的数据库错误会包装 ErrRetryable。
func (r *Runner) Execute(ctx context.Context, runID string) error {
	logger := r.logger.With(slog.String("run", runID))

	run, err := r.store.GetSolveRunByID(runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("读取求解任务失败: %w", err)
		}
		return fmt.Errorf("%w: 读取求解任务失败: %w", ErrRetryable, err)
	}
	if run.Status != domain.SolveRunPending {
		logger.Warn("求解任务已经被处理过，跳过", slog.String("status", string(run.Status)))
		return nil
	}
	if err := r.store.MarkSolveRunRunning(run); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("求解任务已被其他 worker 领取，跳过")
			return nil
		}
		return fmt.Errorf("%w: 更新求解任务状态失败: %w", ErrRetryable, err)
	}

	started := time.Now()
	result, err := r.solve(ctx, run, logger)
	if err != nil {
		r.metrics.SolveFailures.Inc()
		if markErr := r.store.MarkSolveRunFailed(run, err); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}

	run.HardScore = result.Score.Hard
	run.SoftScore = result.Score.Soft
	run.Steps = result.Steps
	run.Termination = string(result.Termination)
	run.Unassigned = result.UnassignedIDs()
	run.Violations = result.Violations
	run.Assignments = result.Assignments
	if err := r.store.SaveSolveRunResult(run); err != nil {
		r.metrics.SolveFailures.Inc()
		err = fmt.Errorf("保存求解结果失败: %w", err)
		if markErr := r.store.MarkSolveRunFailed(run, err); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}
	r.metrics.ObserveResult("worker", result, time.Since(started))

	if err := r.progress.Delete(context.WithoutCancel(ctx), run.ID); err != nil {
		logger.Warn("无法清除求解进度", slog.String("error", err.Error()))
	}

	r.notify(ctx, run, logger)

	return nil
}

func (r *Runner) solve(ctx context.Context, run *domain.SolveRun, logger *slog.Logger) (*solver.Result, error) {
	params, err := DecodeParameters(run.Parameters)
	if err != nil {
		return nil, err
	}
	cfg := params.Apply(r.base)

	taskPtrs, err := r.store.GetTasks(run.ProjectIDs)
	if err != nil {
		return nil, fmt.Errorf("读取任务失败: %w", err)
	}
	employeePtrs, err := r.store.GetAllEmployees()
	if err != nil {
		return nil, fmt.Errorf("读取员工失败: %w", err)
	}
	tasks := deref(taskPtrs)
	employees := deref(employeePtrs)

	observer := solver.NewChannelObserver(r.buffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// 求解结束后 ctx 可能已经被取消，但最后一次进度仍然需要写入
		writeCtx := context.WithoutCancel(ctx)
		for p := range observer.C() {
			if err := r.progress.Set(writeCtx, run.ID, ToSolveProgress(p)); err != nil {
				logger.Warn("无法写入求解进度", slog.String("error", err.Error()))
			}
		}
	}()

	result, err := solver.Solve(ctx, tasks, employees, cfg, solver.WithLogger(logger), solver.WithObserver(observer))
	observer.Close()
	<-done

	if dropped := observer.Dropped(); dropped > 0 {
		r.metrics.DroppedProgress.Add(float64(dropped))
		logger.Info("部分求解进度被丢弃", slog.Int64("dropped", dropped))
	}

	return result, err
}

func (r *Runner) notify(ctx context.Context, run *domain.SolveRun, logger *slog.Logger) {
	user, err := r.store.GetUserByID(run.RequestedBy)
	if err != nil {
		logger.Warn("无法获取求解发起人，不发送通知邮件", slog.String("error", err.Error()))
		return
	}

	msg := domain.MailMessage{
		Type: domain.MailTypeSolveFinished,
		To:   user.Email,
		Data: domain.SolveFinishedMailData{
			FullName:    user.FullName,
			RunID:       run.ID,
			HardScore:   run.HardScore,
			SoftScore:   run.SoftScore,
			Unassigned:  len(run.Unassigned),
			Termination: run.Termination,
		},
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), queue.EmailQueue, msg); err != nil {
		logger.Warn("无法投递通知邮件", slog.String("error", err.Error()))
	}
}

// ToSolveProgress 把求解器的进度转换成缓存中的格式，分数取目前为止的最优值
func ToSolveProgress(p solver.Progress) domain.SolveProgress {
	return domain.SolveProgress{
		Step:      p.Step,
		HardScore: p.BestScore.Hard,
		SoftScore: p.BestScore.Soft,
		ElapsedMs: p.Elapsed.Milliseconds(),
	}
}

func deref[T any](ptrs []*T) []T {
	out := make([]T, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}
