package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

func TestConstraintByName(t *testing.T) {
	for _, c := range Constraints() {
		got, ok := ConstraintByName(c.Name)
		assert.True(t, ok, c.Name)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, c.Name, c.ID.String())
	}

	_, ok := ConstraintByName("nope")
	assert.False(t, ok)
}

func TestConstraints_DoubleBookingAndSoftener(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Duration: 60, RequiredSkills: []string{"x"}},
		{ID: "b", Duration: 60, RequiredSkills: []string{"x"}},
	}
	employees := []domain.Employee{{ID: "e1", Skills: []string{"x"}}}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 0, 0, 480)
	place(calc, 1, 0, 510)
	assert.Equal(t, int64(1), calc.Impact(NoDoubleBooking))
	assert.Zero(t, calc.Impact(OverlapSoftener))

	// 首尾相接没有违反硬约束，但间隔小于 15 分钟
	place(calc, 1, 0, 540)
	assert.Zero(t, calc.Impact(NoDoubleBooking))
	assert.Equal(t, int64(15), calc.Impact(OverlapSoftener))

	place(calc, 1, 0, 560)
	assert.Zero(t, calc.Impact(OverlapSoftener))
}

func TestConstraints_TimeWindows(t *testing.T) {
	tasks := []domain.Task{{ID: "a", Duration: 60, RequiredSkills: []string{"x"}, EarliestStart: 300}}
	employees := []domain.Employee{{ID: "e1", Skills: []string{"x"}, Unavailable: []domain.Interval{{Start: 600, End: 700}}}}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 0, 0, 1020)
	assert.Zero(t, calc.Impact(WorkingHours))
	assert.Zero(t, calc.Impact(EmployeeUnavailable))

	place(calc, 0, 0, 1050)
	assert.Equal(t, int64(30), calc.Impact(WorkingHours))

	place(calc, 0, 0, 650)
	assert.Equal(t, int64(1), calc.Impact(EmployeeUnavailable))

	place(calc, 0, 0, 240)
	assert.Equal(t, int64(1), calc.Impact(WithinHorizon))

	place(calc, 0, 0, 14*minutesPerDay-30)
	assert.Equal(t, int64(1), calc.Impact(WithinHorizon))
}

func TestConstraints_Weekend(t *testing.T) {
	tasks := []domain.Task{{ID: "a", Duration: 60, RequiredSkills: []string{"x"}}}
	employees := []domain.Employee{{ID: "e1", Skills: []string{"x"}}}

	// 零值的 HorizonStart 是星期一，第 5 天是星期六
	saturday := 5*minutesPerDay + 600

	_, calc := newTestState(t, tasks, employees, stepConfig(10))
	place(calc, 0, 0, saturday)
	assert.Equal(t, int64(120), calc.Impact(WeekendAvoidance))

	cfg := stepConfig(10)
	cfg.AllowWeekends = true
	_, calc = newTestState(t, tasks, employees, cfg)
	place(calc, 0, 0, saturday)
	assert.Zero(t, calc.Impact(WeekendAvoidance))
}

func TestConstraints_FairLoad(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Duration: 60, RequiredSkills: []string{"x"}},
		{ID: "b", Duration: 60, RequiredSkills: []string{"x"}},
		{ID: "pin", Duration: 120, Pinned: true, PinnedStart: 0, PinnedEmployeeID: "e2"},
	}
	employees := []domain.Employee{
		{ID: "e1", Skills: []string{"x"}},
		{ID: "e2", Skills: []string{"x"}},
	}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 2, 1, 0)
	assert.Zero(t, calc.Impact(FairLoad), "pinned tasks do not count as load")

	// 负载 [60, 0]：(2*3600 - 60*60) / (2*2*60) = 15
	place(calc, 0, 0, 480)
	assert.Equal(t, int64(15), calc.Impact(FairLoad))

	place(calc, 1, 1, 480)
	assert.Zero(t, calc.Impact(FairLoad))

	place(calc, 1, 0, 600)
	assert.Equal(t, int64(60), calc.Impact(FairLoad))
}

func TestConstraints_Relations(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", ProjectID: "p", Sequence: 0, Duration: 60, RequiredSkills: []string{"x"}},
		{ID: "b", ProjectID: "p", Sequence: 1, Duration: 60, RequiredSkills: []string{"x"}, Predecessors: []string{"a"}},
		{ID: "c", Duration: 30, RequiredSkills: []string{"y"}},
	}
	employees := []domain.Employee{
		{ID: "e1", Skills: []string{"x"}},
		{ID: "e2", Skills: []string{"x", "y"}},
	}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 0, 0, 480)
	place(calc, 1, 1, 480)
	assert.Equal(t, int64(1), calc.Impact(DependencyOrder))
	assert.Equal(t, int64(3*60), calc.Impact(ProjectSequence))

	place(calc, 1, 1, 540)
	assert.Zero(t, calc.Impact(DependencyOrder))
	assert.Zero(t, calc.Impact(ProjectSequence))

	place(calc, 2, 0, 600)
	assert.Equal(t, int64(1), calc.Impact(SkillMatch))
}

func TestConstraints_Pinned(t *testing.T) {
	tasks := []domain.Task{{ID: "pin", Duration: 60, Pinned: true, PinnedStart: 540}}
	employees := []domain.Employee{{ID: "self"}}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 0, 0, 540)
	assert.Zero(t, calc.Impact(PinnedImmutable))

	place(calc, 0, 0, 600)
	assert.Equal(t, int64(1), calc.Impact(PinnedImmutable))
}

func TestConstraints_DayPreferences(t *testing.T) {
	tasks := []domain.Task{{ID: "a", Duration: 60, RequiredSkills: []string{"x"}}}
	employees := []domain.Employee{{ID: "e1", Skills: []string{"x"}, UndesiredDays: []int{0}, DesiredDays: []int{1}}}
	_, calc := newTestState(t, tasks, employees, stepConfig(10))

	place(calc, 0, 0, 480)
	assert.Equal(t, int64(120), calc.Impact(UndesiredDay))
	assert.Zero(t, calc.Impact(DesiredDay))

	place(calc, 0, 0, minutesPerDay+480)
	assert.Zero(t, calc.Impact(UndesiredDay))
	assert.Equal(t, int64(-60), calc.Impact(DesiredDay))
}

func TestConstraints_WeightOverride(t *testing.T) {
	tasks := []domain.Task{{ID: "a", Duration: 60, RequiredSkills: []string{"x"}}}
	employees := []domain.Employee{{ID: "e1", Skills: []string{"x"}}}

	cfg := stepConfig(10)
	cfg.ConstraintWeights = map[string]int64{"working_hours": 5, "fair_load": 0}
	_, calc := newTestState(t, tasks, employees, cfg)

	place(calc, 0, 0, 1050)
	assert.Equal(t, int64(150), calc.Impact(WorkingHours))
	assert.Zero(t, calc.Impact(FairLoad))
}
