package solver

type ConstraintID int

const (
	SkillMatch ConstraintID = iota
	NoDoubleBooking
	DependencyOrder
	EmployeeUnavailable
	PinnedImmutable
	WithinHorizon
	WorkingHours
	WeekendAvoidance
	OverlapSoftener
	FairLoad
	ProjectSequence
	UndesiredDay
	DesiredDay

	constraintCount
)

type Kind string

const (
	Hard Kind = "hard"
	Soft Kind = "soft"
)

// impactFunc 计算分配 a 对分数的贡献（未乘权重）。
// 调用时 a 不在索引中，因此只统计 a 与其他已计入分配之间的关系。
type impactFunc func(s *Schedule, a *Assignment) int64

type Constraint struct {
	ID            ConstraintID
	Name          string
	Kind          Kind
	DefaultWeight int64

	impact impactFunc
}

var constraints = [constraintCount]Constraint{
	{SkillMatch, "skill_match", Hard, 1, skillMatch},
	{NoDoubleBooking, "no_double_booking", Hard, 1, noDoubleBooking},
	{DependencyOrder, "dependency_order", Hard, 1, dependencyOrder},
	{EmployeeUnavailable, "employee_unavailable", Hard, 1, employeeUnavailable},
	{PinnedImmutable, "pinned_immutable", Hard, 1, pinnedImmutable},
	{WithinHorizon, "within_horizon", Hard, 1, withinHorizon},
	{WorkingHours, "working_hours", Soft, 1, workingHours},
	{WeekendAvoidance, "weekend_avoidance", Soft, 2, weekendAvoidance},
	{OverlapSoftener, "overlap_softener", Soft, 1, overlapSoftener},
	{FairLoad, "fair_load", Soft, 1, fairLoad},
	{ProjectSequence, "project_sequence", Soft, 3, projectSequence},
	{UndesiredDay, "undesired_day", Soft, 120, undesiredDay},
	{DesiredDay, "desired_day", Soft, 60, desiredDay},
}

// Constraints 返回全部约束的定义
func Constraints() []Constraint {
	return constraints[:]
}

func ConstraintByName(name string) (Constraint, bool) {
	for _, c := range constraints {
		if c.Name == name {
			return c, true
		}
	}
	return Constraint{}, false
}

func (id ConstraintID) String() string {
	if id < 0 || id >= constraintCount {
		return "unknown"
	}
	return constraints[id].Name
}

// resolveWeights 把配置中的权重合并到默认权重上
func resolveWeights(cfg Config) [constraintCount]int64 {
	var weights [constraintCount]int64
	for i, c := range constraints {
		weights[i] = c.DefaultWeight
		if w, ok := cfg.ConstraintWeights[c.Name]; ok {
			weights[i] = w
		}
	}
	if cfg.AllowWeekends {
		weights[WeekendAvoidance] = 0
	}
	return weights
}

/**
 * 硬约束
 */

func skillMatch(s *Schedule, a *Assignment) int64 {
	if s.problem.employees[a.employee].hasSkills(a.task.skills) {
		return 0
	}
	return 1
}

func noDoubleBooking(s *Schedule, a *Assignment) int64 {
	var n int64
	for _, b := range s.byEmployee[a.employee] {
		if a.overlaps(b) {
			n++
		}
	}
	return n
}

func dependencyOrder(s *Schedule, a *Assignment) int64 {
	var n int64
	for _, p := range a.task.preds {
		if pa := s.assignments[p]; pa.inserted && pa.end() > a.start {
			n++
		}
	}
	for _, succ := range a.task.succs {
		if sa := s.assignments[succ]; sa.inserted && a.end() > sa.start {
			n++
		}
	}
	return n
}

func employeeUnavailable(s *Schedule, a *Assignment) int64 {
	end := a.end()
	for _, iv := range s.problem.employees[a.employee].unavailable {
		if iv.Start >= end {
			break
		}
		if iv.End > a.start {
			return 1
		}
	}
	return 0
}

func pinnedImmutable(_ *Schedule, a *Assignment) int64 {
	if a.task.pinned && (a.start != a.task.pinnedStart || a.employee != a.task.pinnedEmployee) {
		return 1
	}
	return 0
}

func withinHorizon(s *Schedule, a *Assignment) int64 {
	if a.task.pinned {
		return 0
	}
	if a.start < a.task.earliestStart || a.end() > s.problem.horizonEnd {
		return 1
	}
	return 0
}

/**
 * 软约束
 */

func workingHours(s *Schedule, a *Assignment) int64 {
	return int64(s.problem.minutesOutsideWindow(a.start, a.end()))
}

func weekendAvoidance(s *Schedule, a *Assignment) int64 {
	return int64(s.problem.weekendMinutes(a.start, a.end()))
}

// overlapSoftener 惩罚同一员工两个任务之间过小的间隔，重叠的情况已经由硬约束处理
func overlapSoftener(s *Schedule, a *Assignment) int64 {
	minGap := s.problem.minGap
	if minGap == 0 {
		return 0
	}

	var n int64
	for _, b := range s.byEmployee[a.employee] {
		if a.overlaps(b) {
			continue
		}
		gap := b.start - a.end()
		if b.start < a.start {
			gap = a.start - b.end()
		}
		if gap < minGap {
			n += int64(minGap - gap)
		}
	}
	return n
}

// fairLoad 的总惩罚为各员工负载（分钟）的方差除以 60。
// 单个分配的贡献是加入它前后总惩罚之差，因此加入顺序不影响总和。
func fairLoad(s *Schedule, a *Assignment) int64 {
	if a.task.pinned {
		return 0
	}
	n := int64(len(s.problem.employees))
	d := int64(a.task.duration)
	l := s.loads[a.employee]
	before := loadVariance(n, s.loadSum, s.loadSq)
	after := loadVariance(n, s.loadSum+d, s.loadSq+(l+d)*(l+d)-l*l)
	return after - before
}

func loadVariance(n, sum, sumSq int64) int64 {
	return (n*sumSq - sum*sum) / (n * n * 60)
}

func projectSequence(s *Schedule, a *Assignment) int64 {
	if a.task.projectRank < 0 {
		return 0
	}

	var n int64
	for _, b := range s.byProject[a.task.projectRank] {
		switch {
		case b.task.sequence < a.task.sequence && b.end() > a.start:
			n += int64(b.end() - a.start)
		case a.task.sequence < b.task.sequence && a.end() > b.start:
			n += int64(a.end() - b.start)
		}
	}
	return n
}

func undesiredDay(s *Schedule, a *Assignment) int64 {
	if _, ok := s.problem.employees[a.employee].undesired[s.problem.dayOf(a.start)]; ok {
		return 1
	}
	return 0
}

func desiredDay(s *Schedule, a *Assignment) int64 {
	if _, ok := s.problem.employees[a.employee].desired[s.problem.dayOf(a.start)]; ok {
		return -1
	}
	return 0
}
