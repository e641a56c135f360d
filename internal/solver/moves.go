package solver

import (
	"math/rand"
)

type MoveKind int

const (
	Reassign MoveKind = iota
	Shift
	Swap
)

func (k MoveKind) String() string {
	switch k {
	case Reassign:
		return "reassign"
	case Shift:
		return "shift"
	case Swap:
		return "swap"
	}
	return "unknown"
}

// Move 是对一个或两个分配的可撤销修改。
// do 和 undo 不导出，因此移动的种类在编译期就是确定的。
type Move interface {
	Kind() MoveKind
	assignments() []*Assignment
	do(c *Calculator)
	undo(c *Calculator)
}

func touchesPinned(m Move) bool {
	for _, a := range m.assignments() {
		if a.task.pinned {
			return true
		}
	}
	return false
}

// changeMove 修改单个分配的员工和开始时间，Reassign 和 Shift 都用它表示
type changeMove struct {
	kind MoveKind
	a    *Assignment

	fromEmployee, fromStart int
	toEmployee, toStart     int
}

func newChangeMove(kind MoveKind, a *Assignment, employee, start int) *changeMove {
	return &changeMove{
		kind:         kind,
		a:            a,
		fromEmployee: a.employee,
		fromStart:    a.start,
		toEmployee:   employee,
		toStart:      start,
	}
}

func (m *changeMove) Kind() MoveKind { return m.kind }

func (m *changeMove) assignments() []*Assignment { return []*Assignment{m.a} }

func (m *changeMove) do(c *Calculator) {
	c.retract(m.a)
	m.a.employee, m.a.start = m.toEmployee, m.toStart
	c.insert(m.a)
}

func (m *changeMove) undo(c *Calculator) {
	c.retract(m.a)
	m.a.employee, m.a.start = m.fromEmployee, m.fromStart
	c.insert(m.a)
}

// swapMove 交换两个分配的员工，开始时间保持不变
type swapMove struct {
	a, b *Assignment
}

func newSwapMove(a, b *Assignment) *swapMove {
	return &swapMove{a: a, b: b}
}

func (m *swapMove) Kind() MoveKind { return Swap }

func (m *swapMove) assignments() []*Assignment { return []*Assignment{m.a, m.b} }

func (m *swapMove) do(c *Calculator) {
	c.retract(m.a)
	c.retract(m.b)
	m.a.employee, m.b.employee = m.b.employee, m.a.employee
	c.insert(m.a)
	c.insert(m.b)
}

// 交换是自逆的
func (m *swapMove) undo(c *Calculator) {
	m.do(c)
}

// moveSelector 随机生成候选移动，固定任务和未分配的任务永远不会出现在候选中
type moveSelector struct {
	schedule    *Schedule
	rng         *rand.Rand
	granularity int
	movable     []*Assignment
}

func newMoveSelector(s *Schedule, rng *rand.Rand, granularity int) *moveSelector {
	sel := &moveSelector{
		schedule:    s,
		rng:         rng,
		granularity: granularity,
	}
	for _, a := range s.assignments {
		if a.assigned() && !a.task.pinned {
			sel.movable = append(sel.movable, a)
		}
	}
	return sel
}

// next 按 4:4:2 的比例生成 Reassign、Shift 和 Swap 移动，无法生成时返回 nil
func (sel *moveSelector) next() Move {
	if len(sel.movable) == 0 {
		return nil
	}

	switch r := sel.rng.Intn(10); {
	case r < 4:
		if m := sel.reassign(); m != nil {
			return m
		}
	case r < 8:
		return sel.shift()
	default:
		if m := sel.swap(); m != nil {
			return m
		}
	}
	return sel.shift()
}

func (sel *moveSelector) pick() *Assignment {
	return sel.movable[sel.rng.Intn(len(sel.movable))]
}

func (sel *moveSelector) reassign() Move {
	a := sel.pick()
	eligible := a.task.eligible
	if len(eligible) < 2 {
		return nil
	}

	e := eligible[sel.rng.Intn(len(eligible)-1)]
	if e == a.employee {
		e = eligible[len(eligible)-1]
	}
	start, _ := sel.schedule.earliestSlot(a.task, e, a)
	return newChangeMove(Reassign, a, e, start)
}

// shift 一半时间把任务压缩到当前员工最早的空闲时段，另一半时间在可行范围内随机移动
func (sel *moveSelector) shift() Move {
	a := sel.pick()
	s := sel.schedule

	if sel.rng.Intn(2) == 0 {
		start, _ := s.earliestSlot(a.task, a.employee, a)
		return newChangeMove(Shift, a, a.employee, start)
	}

	lo := s.releaseTime(a.task)
	hi := s.latestStart(a.task)
	if hi <= lo {
		return newChangeMove(Shift, a, a.employee, lo)
	}

	slots := (hi-lo)/sel.granularity + 1
	start := lo + sel.rng.Intn(slots)*sel.granularity
	return newChangeMove(Shift, a, a.employee, start)
}

const swapAttempts = 8

func (sel *moveSelector) swap() Move {
	if len(sel.movable) < 2 {
		return nil
	}

	employees := sel.schedule.problem.employees
	for range swapAttempts {
		a, b := sel.pick(), sel.pick()
		if a == b || a.employee == b.employee {
			continue
		}
		if employees[b.employee].hasSkills(a.task.skills) && employees[a.employee].hasSkills(b.task.skills) {
			return newSwapMove(a, b)
		}
	}
	return nil
}
