package solver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

type taskGraph struct {
	preds [][]int
	succs [][]int
	order []int
}

// buildGraph 检查依赖关系是否构成 DAG，并给出确定的拓扑序。
// 同时可以开始的任务先按项目第一次出现的顺序排列，再按任务 ID 排列。
func buildGraph(tasks []domain.Task) (*taskGraph, error) {
	n := len(tasks)
	g := &taskGraph{
		preds: make([][]int, n),
		succs: make([][]int, n),
		order: make([]int, 0, n),
	}

	index := make(map[string]int, n)
	for i, t := range tasks {
		if _, exists := index[t.ID]; exists {
			return nil, &GraphError{TaskID: t.ID, Reason: "duplicate task id"}
		}
		index[t.ID] = i
	}

	projectRank := make(map[string]int)
	rankOf := make([]int, n)
	for i, t := range tasks {
		rank, ok := projectRank[t.ProjectID]
		if !ok {
			rank = len(projectRank)
			projectRank[t.ProjectID] = rank
		}
		rankOf[i] = rank
	}

	for i, t := range tasks {
		seen := make(map[int]bool, len(t.Predecessors))
		for _, predID := range t.Predecessors {
			p, ok := index[predID]
			if !ok {
				return nil, &GraphError{TaskID: t.ID, Reason: fmt.Sprintf("unknown predecessor %q", predID)}
			}
			if p == i {
				return nil, &GraphError{TaskID: t.ID, Reason: "task depends on itself"}
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			g.preds[i] = append(g.preds[i], p)
			g.succs[p] = append(g.succs[p], i)
		}
	}

	less := func(a, b int) int {
		if rankOf[a] != rankOf[b] {
			return rankOf[a] - rankOf[b]
		}
		return strings.Compare(tasks[a].ID, tasks[b].ID)
	}

	// Kahn 算法
	inDegree := make([]int, n)
	ready := make([]int, 0, n)
	for i := range tasks {
		inDegree[i] = len(g.preds[i])
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	for len(ready) > 0 {
		slices.SortFunc(ready, less)
		cur := ready[0]
		ready = ready[1:]
		g.order = append(g.order, cur)

		for _, next := range g.succs[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(g.order) < n {
		var blocked []string
		for i := range tasks {
			if inDegree[i] > 0 {
				blocked = append(blocked, tasks[i].ID)
			}
		}
		slices.Sort(blocked)
		return nil, &GraphError{TaskID: blocked[0], Reason: fmt.Sprintf("dependency cycle among %v", blocked)}
	}

	return g, nil
}

// CheckTaskGraph 只检查依赖关系，用于在任务入库之前拒绝有环或引用不存在任务的批次
func CheckTaskGraph(tasks []domain.Task) error {
	_, err := buildGraph(tasks)
	return err
}
