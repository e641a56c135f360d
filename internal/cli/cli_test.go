package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

const problemYAML = `
config:
  maxSteps: 200
  horizonDays: 5
  horizonStart: 2024-01-01T00:00:00Z
  randomSeed: 7
employees:
  - id: e1
    name: 张三
    skills: [go]
  - id: e2
    name: 李四
    skills: [design]
tasks:
  - id: a
    projectID: p1
    duration: 60
    requiredSkills: [go]
  - id: b
    projectID: p1
    duration: 30
    requiredSkills: [go]
    predecessors: [a]
  - id: c
    projectID: p2
    duration: 45
    requiredSkills: [design]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadProblemKeepsDefaults(t *testing.T) {
	p, err := LoadProblem(writeFile(t, "problem.yaml", problemYAML))
	require.NoError(t, err)

	def := solver.DefaultConfig()
	assert.Equal(t, 200, p.Config.MaxSteps)
	assert.Equal(t, 5, p.Config.HorizonDays)
	assert.Equal(t, int64(7), p.Config.RandomSeed)
	assert.Equal(t, def.MaxDuration, p.Config.MaxDuration)
	assert.Equal(t, def.WorkHoursStart, p.Config.WorkHoursStart)
	assert.Len(t, p.Employees, 2)
	assert.Len(t, p.Tasks, 3)
	assert.Equal(t, []string{"a"}, p.Tasks[1].Predecessors)
}

func TestLoadProblemErrors(t *testing.T) {
	_, err := LoadProblem(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadProblem(writeFile(t, "bad.yaml", "tasks: [\n"))
	assert.Error(t, err)
}

func TestSolveCommand(t *testing.T) {
	path := writeFile(t, "problem.yaml", problemYAML)

	stdout, _, err := run(t, "solve", "-f", path, "--max-steps", "50")
	require.NoError(t, err)

	var result solver.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))

	assert.Equal(t, solver.StepLimit, result.Termination)
	assert.Equal(t, 50, result.Steps)
	assert.Equal(t, int64(0), result.Score.Hard)
	assert.Empty(t, result.Unassigned)
	require.Len(t, result.Assignments, 3)

	byTask := make(map[string]int)
	for i, a := range result.Assignments {
		byTask[a.TaskID] = i
	}
	a := result.Assignments[byTask["a"]]
	b := result.Assignments[byTask["b"]]
	c := result.Assignments[byTask["c"]]
	assert.Equal(t, "e1", a.EmployeeID)
	assert.Equal(t, "e1", b.EmployeeID)
	assert.Equal(t, "e2", c.EmployeeID)
	assert.LessOrEqual(t, a.End, b.Start)
}

func TestSolveCommandProgressAndYAML(t *testing.T) {
	path := writeFile(t, "problem.yaml", problemYAML)

	stdout, stderr, err := run(t, "solve", "-f", path, "--format", "yaml", "--progress")
	require.NoError(t, err)

	assert.Contains(t, stdout, "assignments:")
	assert.Contains(t, stdout, "termination:")
	assert.Contains(t, stderr, "step=")
}

func TestSolveCommandWeights(t *testing.T) {
	path := writeFile(t, "problem.yaml", problemYAML)
	weights := writeFile(t, "weights.yaml", "fair_load: 0\n")

	_, _, err := run(t, "solve", "-f", path, "--weights", weights)
	assert.NoError(t, err)

	unknown := writeFile(t, "unknown.yaml", "no_such_constraint: 3\n")
	_, _, err = run(t, "solve", "-f", path, "--weights", unknown)
	assert.Error(t, err)
}

func TestSolveCommandRejectsBadInput(t *testing.T) {
	_, _, err := run(t, "solve")
	assert.Error(t, err)

	path := writeFile(t, "problem.yaml", problemYAML)
	_, _, err = run(t, "solve", "-f", path, "--format", "xml")
	assert.Error(t, err)

	cyclic := writeFile(t, "cyclic.yaml", `
employees:
  - id: e1
    skills: [go]
tasks:
  - id: a
    duration: 30
    requiredSkills: [go]
    predecessors: [b]
  - id: b
    duration: 30
    requiredSkills: [go]
    predecessors: [a]
`)
	_, _, err = run(t, "solve", "-f", cyclic)
	assert.ErrorIs(t, err, solver.ErrMalformedTaskGraph)
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "problem.yaml", problemYAML)

	stdout, _, err := run(t, "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 个员工")
	assert.Contains(t, stdout, "3 个任务")

	dangling := writeFile(t, "dangling.yaml", `
employees:
  - id: e1
tasks:
  - id: a
    duration: 30
    requiredSkills: [go]
    predecessors: [missing]
`)
	_, _, err = run(t, "validate", "-f", dangling)
	assert.ErrorIs(t, err, solver.ErrMalformedTaskGraph)
}
