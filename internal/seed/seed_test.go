package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

func TestParseEmployees(t *testing.T) {
	in := "id,姓名,邮箱,技能,不可用时间,不想上班,想上班\n" +
		"e1,王伟,w@example.com,go;sql,60-120;1440-2880,5,1;2\n"

	employees, err := ParseEmployees(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, employees, 1)

	e := employees[0]
	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, []string{"go", "sql"}, e.Skills)
	assert.Equal(t, []domain.Interval{{Start: 60, End: 120}, {Start: 1440, End: 2880}}, e.Unavailable)
	assert.Equal(t, []int{5}, e.UndesiredDays)
	assert.Equal(t, []int{1, 2}, e.DesiredDays)
}

func TestParseEmployees_Errors(t *testing.T) {
	_, err := ParseEmployees(strings.NewReader("id,姓名\n"))
	assert.ErrorContains(t, err, "没有找到列")

	in := "id,姓名,邮箱,技能,不可用时间,不想上班,想上班\n" +
		"e1,王伟,,go,60~120,,\n"
	_, err = ParseEmployees(strings.NewReader(in))
	assert.ErrorContains(t, err, "第 2 行")
}

func TestParseTasks(t *testing.T) {
	in := "id,项目,描述,时长,技能,前置任务,最早开始,固定员工,固定开始\n" +
		"a,p,first,60,go,,0,,\n" +
		"b,p,second,30,go,a,120,,\n" +
		"m,,meeting,30,,,,e1,540\n"

	tasks, err := ParseTasks(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, 0, tasks[0].Sequence)
	assert.Equal(t, 1, tasks[1].Sequence)
	assert.Equal(t, []string{"a"}, tasks[1].Predecessors)
	assert.Equal(t, 120, tasks[1].EarliestStart)

	assert.True(t, tasks[2].Pinned)
	assert.Equal(t, "e1", tasks[2].PinnedEmployeeID)
	assert.Equal(t, 540, tasks[2].PinnedStart)
	assert.Empty(t, tasks[2].RequiredSkills)

	_, err = ParseTasks(strings.NewReader("id,项目,描述,时长,技能,前置任务,最早开始,固定员工,固定开始\nx,p,,long,go,,,,\n"))
	assert.ErrorContains(t, err, "时长")
}

func TestDemoDataSolves(t *testing.T) {
	employeePtrs, tasks, err := DemoData()
	require.NoError(t, err)
	require.NotEmpty(t, employeePtrs)
	require.NotEmpty(t, tasks)

	employees := make([]domain.Employee, len(employeePtrs))
	for i, e := range employeePtrs {
		employees[i] = *e
	}

	cfg := solver.DefaultConfig()
	cfg.MaxSteps = 300
	cfg.MaxDuration = 10 * time.Second
	cfg.PlateauSteps = 0

	result, err := solver.Solve(context.Background(), tasks, employees, cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Unassigned)
	assert.True(t, result.Score.Feasible(), result.Violations)
	assert.Len(t, result.Assignments, len(tasks))
}
