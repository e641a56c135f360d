package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

func newTestState(t *testing.T, tasks []domain.Task, employees []domain.Employee, cfg Config) (*Schedule, *Calculator) {
	t.Helper()

	cfg = cfg.withDefaults()
	require.NoError(t, ValidateInput(tasks, employees, cfg))
	p, err := newProblem(tasks, employees, cfg)
	require.NoError(t, err)

	s := newSchedule(p)
	return s, newCalculator(s, resolveWeights(cfg))
}

func place(c *Calculator, taskIndex, employee, start int) {
	a := c.schedule.assignments[taskIndex]
	c.retract(a)
	a.employee, a.start = employee, start
	c.insert(a)
}

func stepConfig(steps int) Config {
	cfg := DefaultConfig()
	cfg.MaxSteps = steps
	cfg.MaxDuration = 0
	cfg.PlateauSteps = 0
	return cfg
}

func findAssignment(t *testing.T, r *Result, taskID string) domain.TaskAssignment {
	t.Helper()
	for _, a := range r.Assignments {
		if a.TaskID == taskID {
			return a
		}
	}
	t.Fatalf("task %s is not assigned", taskID)
	return domain.TaskAssignment{}
}
