package runner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

type memoryStore struct {
	runs      map[string]*domain.SolveRun
	tasks     []*domain.Task
	employees []*domain.Employee
	users     map[int64]*domain.User
	saved     []*domain.SolveRun
	failed    []error
}

func (s *memoryStore) GetSolveRunByID(id string) (*domain.SolveRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return run, nil
}

func (s *memoryStore) MarkSolveRunRunning(run *domain.SolveRun) error {
	if run.Status != domain.SolveRunPending {
		return sql.ErrNoRows
	}
	run.Status = domain.SolveRunRunning
	return nil
}

func (s *memoryStore) SaveSolveRunResult(run *domain.SolveRun) error {
	run.Status = domain.SolveRunFinished
	s.saved = append(s.saved, run)
	return nil
}

func (s *memoryStore) MarkSolveRunFailed(run *domain.SolveRun, cause error) error {
	run.Status = domain.SolveRunFailed
	run.Error = cause.Error()
	s.failed = append(s.failed, cause)
	return nil
}

func (s *memoryStore) GetTasks([]string) ([]*domain.Task, error) {
	return s.tasks, nil
}

func (s *memoryStore) GetAllEmployees() ([]*domain.Employee, error) {
	return s.employees, nil
}

func (s *memoryStore) GetUserByID(id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type memoryProgress struct {
	mu      sync.Mutex
	last    map[string]domain.SolveProgress
	sets    int
	deleted []string
}

func (p *memoryProgress) Set(_ context.Context, runID string, v domain.SolveProgress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[runID] = v
	p.sets++
	return nil
}

func (p *memoryProgress) Delete(_ context.Context, runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, runID)
	return nil
}

type published struct {
	queue string
	msg   any
}

type memoryPublisher struct {
	messages []published
}

func (p *memoryPublisher) Publish(_ context.Context, queue string, v any) error {
	p.messages = append(p.messages, published{queue: queue, msg: v})
	return nil
}

func newTestRunner(store Store) (*Runner, *memoryProgress, *memoryPublisher, *metrics.Metrics) {
	progress := &memoryProgress{last: make(map[string]domain.SolveProgress)}
	publisher := &memoryPublisher{}
	m := metrics.New()

	base := solver.DefaultConfig()
	base.MaxSteps = 50
	base.MaxDuration = 0
	base.PlateauSteps = 0

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, progress, publisher, m, base, 64, logger), progress, publisher, m
}

func newTestStore() *memoryStore {
	return &memoryStore{
		runs: map[string]*domain.SolveRun{
			"run-1": {ID: "run-1", Status: domain.SolveRunPending, RequestedBy: 7},
		},
		tasks: []*domain.Task{
			{ID: "design", ProjectID: "p1", Duration: 60, RequiredSkills: []string{"go"}},
			{ID: "build", ProjectID: "p1", Duration: 60, RequiredSkills: []string{"go"}, Predecessors: []string{"design"}},
		},
		employees: []*domain.Employee{
			{ID: "e1", Skills: []string{"go"}},
		},
		users: map[int64]*domain.User{
			7: {ID: 7, FullName: "张三", Email: "zhangsan@example.com"},
		},
	}
}

func TestExecute_Success(t *testing.T) {
	store := newTestStore()
	r, progress, publisher, m := newTestRunner(store)

	require.NoError(t, r.Execute(context.Background(), "run-1"))

	require.Len(t, store.saved, 1)
	run := store.saved[0]
	assert.Equal(t, domain.SolveRunFinished, run.Status)
	assert.Equal(t, int64(0), run.HardScore)
	assert.Equal(t, 50, run.Steps)
	assert.Equal(t, string(solver.StepLimit), run.Termination)
	assert.Empty(t, run.Unassigned)
	require.Len(t, run.Assignments, 2)

	// 依赖顺序在结果中得到满足
	byTask := make(map[string]domain.TaskAssignment)
	for _, a := range run.Assignments {
		byTask[a.TaskID] = a
	}
	assert.LessOrEqual(t, byTask["design"].End, byTask["build"].Start)

	assert.GreaterOrEqual(t, progress.sets, 1)
	assert.Equal(t, 50, progress.last["run-1"].Step)
	assert.Equal(t, []string{"run-1"}, progress.deleted)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, queue.EmailQueue, publisher.messages[0].queue)
	msg := publisher.messages[0].msg.(domain.MailMessage)
	assert.Equal(t, domain.MailTypeSolveFinished, msg.Type)
	assert.Equal(t, "zhangsan@example.com", msg.To)
	assert.Equal(t, "run-1", msg.Data.(domain.SolveFinishedMailData).RunID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolveRuns.WithLabelValues("worker", string(solver.StepLimit))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SolveFailures))
}

func TestExecute_MalformedGraphMarksFailed(t *testing.T) {
	store := newTestStore()
	store.tasks = append(store.tasks, &domain.Task{
		ID: "deploy", Duration: 30, RequiredSkills: []string{"go"}, Predecessors: []string{"missing"},
	})
	r, _, publisher, m := newTestRunner(store)

	err := r.Execute(context.Background(), "run-1")
	require.ErrorIs(t, err, solver.ErrMalformedTaskGraph)

	assert.Equal(t, domain.SolveRunFailed, store.runs["run-1"].Status)
	assert.NotEmpty(t, store.runs["run-1"].Error)
	assert.Empty(t, store.saved)
	assert.Empty(t, publisher.messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolveFailures))
}

// saveFailStore 模拟结果写入时数据库不可用
type saveFailStore struct {
	*memoryStore
}

func (s saveFailStore) SaveSolveRunResult(*domain.SolveRun) error {
	return errors.New("db down")
}

func TestExecute_SaveFailureMarksFailed(t *testing.T) {
	store := newTestStore()
	r, progress, publisher, m := newTestRunner(saveFailStore{store})

	err := r.Execute(context.Background(), "run-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetryable)

	run := store.runs["run-1"]
	assert.Equal(t, domain.SolveRunFailed, run.Status)
	assert.Contains(t, run.Error, "db down")
	require.Len(t, store.failed, 1)
	assert.Empty(t, store.saved)
	assert.Empty(t, progress.deleted)
	assert.Empty(t, publisher.messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolveFailures))
}

// lookupFailStore 模拟读取求解任务时数据库不可用
type lookupFailStore struct {
	*memoryStore
}

func (s lookupFailStore) GetSolveRunByID(string) (*domain.SolveRun, error) {
	return nil, errors.New("connection refused")
}

func TestExecute_LookupFailureIsRetryable(t *testing.T) {
	store := newTestStore()
	r, _, _, _ := newTestRunner(lookupFailStore{store})

	err := r.Execute(context.Background(), "run-1")
	require.ErrorIs(t, err, ErrRetryable)

	// 求解任务保持 pending，重新投递后可以继续处理
	assert.Equal(t, domain.SolveRunPending, store.runs["run-1"].Status)
	assert.Empty(t, store.failed)
}

func TestExecute_SkipsProcessedRun(t *testing.T) {
	store := newTestStore()
	store.runs["run-1"].Status = domain.SolveRunFinished
	r, _, publisher, _ := newTestRunner(store)

	require.NoError(t, r.Execute(context.Background(), "run-1"))
	assert.Empty(t, store.saved)
	assert.Empty(t, publisher.messages)
}

func TestExecute_UnknownRun(t *testing.T) {
	r, _, _, _ := newTestRunner(newTestStore())
	err := r.Execute(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NotErrorIs(t, err, ErrRetryable)
}

func TestExecute_CancelledStillPersists(t *testing.T) {
	store := newTestStore()
	r, _, _, _ := newTestRunner(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Execute(ctx, "run-1"))
	require.Len(t, store.saved, 1)
	assert.Equal(t, string(solver.Cancelled), store.saved[0].Termination)
	assert.Len(t, store.saved[0].Assignments, 2)
}

func TestParameters_Apply(t *testing.T) {
	raw := json.RawMessage(`{"maxSteps": 10, "maxDuration": 3, "allowWeekends": true, "constraintWeights": {"fair_load": 5}}`)
	p, err := DecodeParameters(raw)
	require.NoError(t, err)

	base := solver.DefaultConfig()
	base.ConstraintWeights = map[string]int64{"weekend_avoidance": 4}
	cfg := p.Apply(base)

	assert.Equal(t, 10, cfg.MaxSteps)
	assert.Equal(t, 3*time.Second, cfg.MaxDuration)
	assert.True(t, cfg.AllowWeekends)
	assert.Equal(t, base.PlateauSteps, cfg.PlateauSteps)
	assert.Equal(t, map[string]int64{"weekend_avoidance": 4, "fair_load": 5}, cfg.ConstraintWeights)
	// base 不会被修改
	assert.Equal(t, map[string]int64{"weekend_avoidance": 4}, base.ConstraintWeights)

	empty, err := DecodeParameters(nil)
	require.NoError(t, err)
	assert.Equal(t, base, empty.Apply(base))

	_, err = DecodeParameters(json.RawMessage(`{"maxSteps": "many"}`))
	assert.Error(t, err)
}
