package solver

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

const minutesPerDay = domain.MinutesPerDay

type employeeFact struct {
	index       int
	id          string
	skills      map[string]struct{}
	unavailable []domain.Interval // 按开始时间排序
	undesired   map[int]struct{}
	desired     map[int]struct{}
}

func (e *employeeFact) hasSkills(skills []string) bool {
	for _, skill := range skills {
		if _, ok := e.skills[skill]; !ok {
			return false
		}
	}
	return true
}

type taskFact struct {
	index         int
	id            string
	projectID     string
	projectRank   int // 项目第一次出现的顺序，没有项目时为 -1
	sequence      int
	duration      int
	skills        []string
	preds         []int
	succs         []int
	earliestStart int

	pinned         bool
	pinnedStart    int
	pinnedEmployee int

	eligible []int // 拥有全部所需技能的员工，按输入顺序
}

// problem 保存一次求解中不会变化的事实
type problem struct {
	tasks     []*taskFact
	employees []*employeeFact
	projects  int
	order     []int // 依赖关系的拓扑序

	horizonEnd    int
	workStart     int
	workEnd       int
	allowWeekends bool
	firstWeekday  time.Weekday
	minGap        int
}

func newProblem(tasks []domain.Task, employees []domain.Employee, cfg Config) (*problem, error) {
	p := &problem{
		tasks:         make([]*taskFact, len(tasks)),
		employees:     make([]*employeeFact, len(employees)),
		horizonEnd:    cfg.HorizonDays * minutesPerDay,
		workStart:     cfg.WorkHoursStart,
		workEnd:       cfg.WorkHoursEnd,
		allowWeekends: cfg.AllowWeekends,
		firstWeekday:  cfg.HorizonStart.Weekday(),
		minGap:        cfg.MinGapMinutes,
	}

	employeeIndex := make(map[string]int, len(employees))
	for i := range employees {
		e := &employees[i]
		fact := &employeeFact{
			index:       i,
			id:          e.ID,
			skills:      make(map[string]struct{}, len(e.Skills)),
			unavailable: slices.Clone(e.Unavailable),
			undesired:   make(map[int]struct{}, len(e.UndesiredDays)),
			desired:     make(map[int]struct{}, len(e.DesiredDays)),
		}
		for _, skill := range e.Skills {
			fact.skills[skill] = struct{}{}
		}
		for _, day := range e.UndesiredDays {
			fact.undesired[day] = struct{}{}
		}
		for _, day := range e.DesiredDays {
			fact.desired[day] = struct{}{}
		}
		slices.SortFunc(fact.unavailable, func(a, b domain.Interval) int {
			return a.Start - b.Start
		})
		p.employees[i] = fact
		employeeIndex[e.ID] = i
	}

	g, err := buildGraph(tasks)
	if err != nil {
		return nil, err
	}
	p.order = g.order

	projectRank := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		fact := &taskFact{
			index:          i,
			id:             t.ID,
			projectID:      t.ProjectID,
			projectRank:    -1,
			sequence:       t.Sequence,
			duration:       t.Duration,
			skills:         t.RequiredSkills,
			preds:          g.preds[i],
			succs:          g.succs[i],
			earliestStart:  t.EarliestStart,
			pinned:         t.Pinned,
			pinnedStart:    t.PinnedStart,
			pinnedEmployee: -1,
		}
		if t.ProjectID != "" {
			rank, ok := projectRank[t.ProjectID]
			if !ok {
				rank = len(projectRank)
				projectRank[t.ProjectID] = rank
			}
			fact.projectRank = rank
		}
		if t.Pinned {
			fact.pinnedEmployee = resolvePinnedEmployee(t, employeeIndex, len(employees))
		}
		for _, e := range p.employees {
			if e.hasSkills(t.RequiredSkills) {
				fact.eligible = append(fact.eligible, e.index)
			}
		}
		p.tasks[i] = fact
	}
	p.projects = len(projectRank)

	return p, nil
}

// resolvePinnedEmployee 找到固定任务所属的员工，只有一个员工时可以省略
func resolvePinnedEmployee(t *domain.Task, employeeIndex map[string]int, employeeCount int) int {
	if t.PinnedEmployeeID == "" && employeeCount == 1 {
		return 0
	}
	if i, ok := employeeIndex[t.PinnedEmployeeID]; ok {
		return i
	}
	return -1
}

func (p *problem) dayOf(minute int) int {
	return minute / minutesPerDay
}

func (p *problem) isWeekend(day int) bool {
	wd := (int(p.firstWeekday) + day) % 7
	return wd == int(time.Saturday) || wd == int(time.Sunday)
}

// fitsWorkWindow 判断区间是否完整地落在某个工作日的工作时间内
func (p *problem) fitsWorkWindow(start, end int) bool {
	day := p.dayOf(start)
	if !p.allowWeekends && p.isWeekend(day) {
		return false
	}
	base := day * minutesPerDay
	return start >= base+p.workStart && end <= base+p.workEnd
}

func (p *problem) minutesOutsideWindow(start, end int) int {
	inside := 0
	for day := p.dayOf(start); day*minutesPerDay < end; day++ {
		base := day * minutesPerDay
		inside += overlap(start, end, base+p.workStart, base+p.workEnd)
	}
	return (end - start) - inside
}

func (p *problem) weekendMinutes(start, end int) int {
	total := 0
	for day := p.dayOf(start); day*minutesPerDay < end; day++ {
		if p.isWeekend(day) {
			base := day * minutesPerDay
			total += overlap(start, end, base, base+minutesPerDay)
		}
	}
	return total
}

// workingMinutes 是一名员工在整个规划范围内的可用工作时长
func (p *problem) workingMinutes() int {
	total := 0
	for day := 0; day*minutesPerDay < p.horizonEnd; day++ {
		if !p.allowWeekends && p.isWeekend(day) {
			continue
		}
		total += p.workEnd - p.workStart
	}
	return total
}

func overlap(aStart, aEnd, bStart, bEnd int) int {
	lo := max(aStart, bStart)
	hi := min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
