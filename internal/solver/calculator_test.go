package solver

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"pgregory.net/rapid"
)

var testSkills = []string{"backend", "frontend", "design", "ml"}

// genProblem 生成一个随机但合法的输入：依赖只指向更早的任务，固定任务总是指向存在的员工
func genProblem(t *rapid.T) ([]domain.Task, []domain.Employee) {
	employeeCount := rapid.IntRange(1, 4).Draw(t, "employees")
	employees := make([]domain.Employee, employeeCount)
	for i := range employees {
		employees[i] = domain.Employee{
			ID:     fmt.Sprintf("e%d", i),
			Skills: rapid.SliceOfNDistinct(rapid.SampledFrom(testSkills[:3]), 0, 3, rapid.ID[string]).Draw(t, fmt.Sprintf("skills-%d", i)),
		}
		if rapid.Bool().Draw(t, fmt.Sprintf("busy-%d", i)) {
			start := rapid.IntRange(0, 3*minutesPerDay).Draw(t, fmt.Sprintf("busy-start-%d", i))
			employees[i].Unavailable = []domain.Interval{{Start: start, End: start + 120}}
		}
	}

	taskCount := rapid.IntRange(1, 8).Draw(t, "tasks")
	tasks := make([]domain.Task, taskCount)
	for i := range tasks {
		task := domain.Task{
			ID:        fmt.Sprintf("t%d", i),
			ProjectID: rapid.SampledFrom([]string{"", "p1", "p2"}).Draw(t, fmt.Sprintf("project-%d", i)),
			Sequence:  i,
			Duration:  rapid.IntRange(1, 16).Draw(t, fmt.Sprintf("duration-%d", i)) * 15,
		}
		if rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("pinned-%d", i)) == 0 {
			task.Pinned = true
			task.PinnedStart = rapid.IntRange(0, 2*minutesPerDay).Draw(t, fmt.Sprintf("pinned-start-%d", i))
			task.PinnedEmployeeID = employees[rapid.IntRange(0, employeeCount-1).Draw(t, fmt.Sprintf("pinned-employee-%d", i))].ID
		} else {
			task.RequiredSkills = []string{rapid.SampledFrom(testSkills).Draw(t, fmt.Sprintf("skill-%d", i))}
		}
		for j := 0; j < i; j++ {
			if rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("dep-%d-%d", i, j)) == 0 {
				task.Predecessors = append(task.Predecessors, tasks[j].ID)
			}
		}
		tasks[i] = task
	}

	return tasks, employees
}

func newRapidState(t *rapid.T, tasks []domain.Task, employees []domain.Employee, cfg Config) (*Schedule, *Calculator) {
	cfg = cfg.withDefaults()
	if err := ValidateInput(tasks, employees, cfg); err != nil {
		t.Fatalf("generated input should be valid: %v", err)
	}
	p, err := newProblem(tasks, employees, cfg)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}
	s := newSchedule(p)
	return s, newCalculator(s, resolveWeights(cfg))
}

// TestCalculator_IncrementalMatchesFullScore 随机执行评估、提交和回滚，增量分数必须始终等于从头计算的分数
func TestCalculator_IncrementalMatchesFullScore(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks, employees := genProblem(t)
		cfg := stepConfig(100)
		cfg.AllowWeekends = rapid.Bool().Draw(t, "allow-weekends")

		s, calc := newRapidState(t, tasks, employees, cfg)
		construct(s, calc)

		check := func(stage string) {
			want, wantImpacts := fullScore(s, calc.weights)
			if got := calc.Score(); got != want {
				t.Fatalf("%s: incremental score %v, full score %v", stage, got, want)
			}
			if calc.impacts != wantImpacts {
				t.Fatalf("%s: incremental impacts %v, full impacts %v", stage, calc.impacts, wantImpacts)
			}
		}
		check("construction")

		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		sel := newMoveSelector(s, rng, cfg.Granularity)
		for i := range 40 {
			m := sel.next()
			if m == nil {
				break
			}

			before := calc.Score()
			switch op := rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("op-%d", i)); op {
			case 0:
				delta, err := calc.Evaluate(m)
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if calc.Score() != before {
					t.Fatalf("evaluate changed the running score")
				}
				_ = calc.Commit(m)
				if got := calc.Score(); got != before.Add(delta) {
					t.Fatalf("commit gave %v, evaluate predicted %v", got, before.Add(delta))
				}
			case 1:
				_ = calc.Commit(m)
			case 2:
				_ = calc.Commit(m)
				_ = calc.Rollback(m)
				if calc.Score() != before {
					t.Fatalf("rollback gave %v, want %v", calc.Score(), before)
				}
			}
			check(fmt.Sprintf("move %d (%s)", i, m.Kind()))
		}
	})
}

func TestCalculator_RejectsPinnedMoves(t *testing.T) {
	tasks := []domain.Task{
		{ID: "pin", Duration: 60, Pinned: true, PinnedStart: 540, PinnedEmployeeID: "e1"},
		{ID: "a", Duration: 30, RequiredSkills: []string{"x"}},
	}
	employees := []domain.Employee{
		{ID: "e1", Skills: []string{"x"}},
		{ID: "e2", Skills: []string{"x"}},
	}
	s, calc := newTestState(t, tasks, employees, stepConfig(10))
	construct(s, calc)
	before := calc.Score()

	pinned := s.assignments[0]
	_, err := calc.Evaluate(newChangeMove(Shift, pinned, 0, 600))
	assert.ErrorIs(t, err, ErrPinnedMove)
	assert.ErrorIs(t, calc.Commit(newSwapMove(pinned, s.assignments[1])), ErrPinnedMove)

	assert.Equal(t, before, calc.Score())
	assert.Equal(t, 540, pinned.start)
	assert.Equal(t, 0, pinned.employee)

	sel := newMoveSelector(s, rand.New(rand.NewSource(1)), 15)
	require.Len(t, sel.movable, 1)
	assert.Same(t, s.assignments[1], sel.movable[0])
}

// TestLocalSearch_StepNeverMovesPinned 即使选择器给出固定任务，一步搜索也不会移动它，也不会出现提交失败
func TestLocalSearch_StepNeverMovesPinned(t *testing.T) {
	tasks := []domain.Task{
		{ID: "pin", Duration: 60, Pinned: true, PinnedStart: 540, PinnedEmployeeID: "e1"},
		{ID: "a", Duration: 30, RequiredSkills: []string{"x"}},
	}
	employees := []domain.Employee{
		{ID: "e1", Skills: []string{"x"}},
		{ID: "e2", Skills: []string{"x"}},
	}
	cfg := stepConfig(10).withDefaults()
	s, calc := newTestState(t, tasks, employees, cfg)
	construct(s, calc)
	before := calc.Score()

	var logs bytes.Buffer
	rng := rand.New(rand.NewSource(1))
	sel := newMoveSelector(s, rng, cfg.Granularity)
	sel.movable = []*Assignment{s.assignments[0]}
	ls := &localSearch{
		cfg:      cfg,
		calc:     calc,
		schedule: s,
		selector: sel,
		rng:      rng,
		observer: nopObserver{},
		logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	}

	for range 20 {
		ls.step(float64(cfg.InitialTolerance))
	}

	assert.Equal(t, before, calc.Score())
	assert.Equal(t, 540, s.assignments[0].start)
	assert.Equal(t, 0, s.assignments[0].employee)
	assert.NotContains(t, logs.String(), "无法提交移动")
}

func TestCalculator_RestoreSnapshot(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Duration: 60, RequiredSkills: []string{"x"}},
		{ID: "b", Duration: 60, RequiredSkills: []string{"x"}},
	}
	employees := []domain.Employee{
		{ID: "e1", Skills: []string{"x"}},
		{ID: "e2", Skills: []string{"x"}},
	}
	s, calc := newTestState(t, tasks, employees, stepConfig(10))
	construct(s, calc)

	snap := s.snapshot()
	want := calc.Score()

	place(calc, 0, 1, 1200)
	place(calc, 1, 1, 1230)
	require.NotEqual(t, want, calc.Score())

	calc.restore(snap)
	assert.Equal(t, want, calc.Score())
	assert.Equal(t, snap, s.snapshot())
}
