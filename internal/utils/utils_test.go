package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
	"pgregory.net/rapid"
)

func TestGenerateRandomSubset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arr := rapid.SliceOfDistinct(rapid.IntRange(0, 1000), rapid.ID[int]).Draw(t, "arr")
		lo := rapid.IntRange(0, 5).Draw(t, "lo")
		hi := rapid.IntRange(lo, 10).Draw(t, "hi")

		subset := GenerateRandomSubset(arr, lo, hi)

		assert.LessOrEqual(t, len(subset), min(hi, len(arr)))
		assert.GreaterOrEqual(t, len(subset), min(lo, len(arr)))
		for _, v := range subset {
			assert.Contains(t, arr, v)
		}
	})
}

func TestGenerateRandomProject(t *testing.T) {
	tasks := GenerateRandomProject("proj", 5)
	require.Len(t, tasks, 5)

	assert.Empty(t, tasks[0].Predecessors)
	for i := 1; i < len(tasks); i++ {
		assert.Equal(t, []string{tasks[i-1].ID}, tasks[i].Predecessors)
		assert.Equal(t, i, tasks[i].Sequence)
	}
	require.NoError(t, ValidateTaskBatch(tasks))
	require.NoError(t, solver.CheckTaskGraph(tasks))
}

func TestGenerateRandomEmployee(t *testing.T) {
	for range 20 {
		e := GenerateRandomEmployee("example.com", 14)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Skills)
		assert.LessOrEqual(t, len(e.Skills), 3)
		assert.NoError(t, ValidateEmployee(e))
		for _, iv := range e.Unavailable {
			assert.Equal(t, domain.MinutesPerDay, iv.Duration())
		}
	}
}

func TestValidateEmployee(t *testing.T) {
	tests := []struct {
		name    string
		e       domain.Employee
		wantErr bool
	}{
		{name: "ok", e: domain.Employee{ID: "e", Skills: []string{"go"}, DesiredDays: []int{1}, UndesiredDays: []int{2}}},
		{name: "empty interval", e: domain.Employee{ID: "e", Skills: []string{"go"}, Unavailable: []domain.Interval{{Start: 10, End: 10}}}, wantErr: true},
		{name: "conflicting days", e: domain.Employee{ID: "e", Skills: []string{"go"}, DesiredDays: []int{3}, UndesiredDays: []int{3}}, wantErr: true},
		{name: "duplicate skill", e: domain.Employee{ID: "e", Skills: []string{"go", "go"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmployee(&tt.e)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTaskBatch(t *testing.T) {
	assert.Error(t, ValidateTaskBatch(nil))
	assert.ErrorContains(t, ValidateTaskBatch([]domain.Task{
		{ID: "a", Duration: 30, RequiredSkills: []string{"go"}},
		{ID: "a", Duration: 30, RequiredSkills: []string{"go"}},
	}), "重复")
	assert.ErrorContains(t, ValidateTaskBatch([]domain.Task{
		{ID: "a", Duration: 30, RequiredSkills: []string{"go"}, Predecessors: []string{"a"}},
	}), "依赖自己")
	assert.ErrorContains(t, ValidateTaskBatch([]domain.Task{
		{ID: "a", Duration: 30},
	}), "技能")
	assert.NoError(t, ValidateTaskBatch([]domain.Task{
		{ID: "meeting", Duration: 60, Pinned: true, PinnedStart: 540, PinnedEmployeeID: "e"},
	}))
}
