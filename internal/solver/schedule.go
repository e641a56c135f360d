package solver

import (
	"slices"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

// Assignment 是规划实体，每个任务对应一个。employee 为 -1 表示还没有分配。
type Assignment struct {
	task     *taskFact
	employee int
	start    int
	inserted bool // 是否已经计入分数和索引
}

func (a *Assignment) end() int {
	return a.start + a.task.duration
}

func (a *Assignment) assigned() bool {
	return a.employee >= 0
}

func (a *Assignment) overlaps(b *Assignment) bool {
	return a.start < b.end() && b.start < a.end()
}

// Schedule 是搜索状态：全部任务的分配以及用于增量计算的索引
type Schedule struct {
	problem     *problem
	assignments []*Assignment

	byEmployee [][]*Assignment
	byProject  [][]*Assignment

	// 非固定任务的负载，用于公平性约束
	loads   []int64
	loadSum int64
	loadSq  int64
}

func newSchedule(p *problem) *Schedule {
	s := &Schedule{
		problem:     p,
		assignments: make([]*Assignment, len(p.tasks)),
		byEmployee:  make([][]*Assignment, len(p.employees)),
		byProject:   make([][]*Assignment, p.projects),
		loads:       make([]int64, len(p.employees)),
	}
	for i, t := range p.tasks {
		s.assignments[i] = &Assignment{task: t, employee: -1}
	}
	return s
}

func (s *Schedule) index(a *Assignment) {
	s.byEmployee[a.employee] = append(s.byEmployee[a.employee], a)
	if a.task.projectRank >= 0 {
		s.byProject[a.task.projectRank] = append(s.byProject[a.task.projectRank], a)
	}
	if !a.task.pinned {
		d := int64(a.task.duration)
		l := s.loads[a.employee]
		s.loadSum += d
		s.loadSq += (l+d)*(l+d) - l*l
		s.loads[a.employee] = l + d
	}
	a.inserted = true
}

func (s *Schedule) unindex(a *Assignment) {
	s.byEmployee[a.employee] = removeAssignment(s.byEmployee[a.employee], a)
	if a.task.projectRank >= 0 {
		s.byProject[a.task.projectRank] = removeAssignment(s.byProject[a.task.projectRank], a)
	}
	if !a.task.pinned {
		d := int64(a.task.duration)
		l := s.loads[a.employee]
		s.loadSum -= d
		s.loadSq += (l-d)*(l-d) - l*l
		s.loads[a.employee] = l - d
	}
	a.inserted = false
}

func removeAssignment(list []*Assignment, a *Assignment) []*Assignment {
	for i, b := range list {
		if b == a {
			last := len(list) - 1
			list[i] = list[last]
			list[last] = nil
			return list[:last]
		}
	}
	return list
}

// releaseTime 是任务最早可以开始的时间：不早于自身的最早开始时间，也不早于已安排的前置任务结束
func (s *Schedule) releaseTime(t *taskFact) int {
	lo := t.earliestStart
	for _, p := range t.preds {
		pa := s.assignments[p]
		if pa.inserted && pa.end() > lo {
			lo = pa.end()
		}
	}
	return lo
}

// latestStart 是不影响已安排的后继任务时最晚的开始时间
func (s *Schedule) latestStart(t *taskFact) int {
	hi := s.problem.horizonEnd - t.duration
	for _, succ := range t.succs {
		sa := s.assignments[succ]
		if sa.inserted && sa.start-t.duration < hi {
			hi = sa.start - t.duration
		}
	}
	return hi
}

// earliestSlot 为员工 e 找到任务 t 最早的空闲时段，exclude 是正在移动的分配本身。
// 优先选择完整落在工作时间内的时段；找不到时退而求其次选择任意空闲时段。
func (s *Schedule) earliestSlot(t *taskFact, e int, exclude *Assignment) (int, bool) {
	p := s.problem
	lo := s.releaseTime(t)

	busy := make([]domain.Interval, 0, len(p.employees[e].unavailable)+len(s.byEmployee[e]))
	busy = append(busy, p.employees[e].unavailable...)
	for _, b := range s.byEmployee[e] {
		if b != exclude {
			busy = append(busy, domain.Interval{Start: b.start, End: b.end()})
		}
	}

	candidates := []int{lo}
	for _, iv := range busy {
		if iv.End > lo {
			candidates = append(candidates, iv.End)
		}
	}
	for day := p.dayOf(lo); day*minutesPerDay < p.horizonEnd; day++ {
		if ws := day*minutesPerDay + p.workStart; ws > lo {
			candidates = append(candidates, ws)
		}
	}
	slices.Sort(candidates)

	for _, preferWindow := range []bool{true, false} {
		for _, c := range candidates {
			end := c + t.duration
			if end > p.horizonEnd {
				break
			}
			if preferWindow && !p.fitsWorkWindow(c, end) {
				continue
			}
			if isFree(busy, c, end) {
				return c, true
			}
		}
	}

	return lo, false
}

func isFree(busy []domain.Interval, start, end int) bool {
	slot := domain.Interval{Start: start, End: end}
	for _, iv := range busy {
		if iv.Overlaps(slot) {
			return false
		}
	}
	return true
}

type placement struct {
	employee int
	start    int
}

func (s *Schedule) snapshot() []placement {
	snap := make([]placement, len(s.assignments))
	for i, a := range s.assignments {
		snap[i] = placement{employee: a.employee, start: a.start}
	}
	return snap
}

// Assignments 按输入顺序返回已分配任务的结果
func (s *Schedule) Assignments() []domain.TaskAssignment {
	out := make([]domain.TaskAssignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if !a.assigned() {
			continue
		}
		out = append(out, domain.TaskAssignment{
			TaskID:     a.task.id,
			EmployeeID: s.problem.employees[a.employee].id,
			Start:      a.start,
			End:        a.end(),
			Pinned:     a.task.pinned,
		})
	}
	return out
}
