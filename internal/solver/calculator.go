package solver

// Calculator 增量维护当前分数。
// 分配在改变之前先撤出（retract），改变之后再计入（insert），两者只涉及被改变的分配，
// 只有初始化时才会对全部分配计算一次。
type Calculator struct {
	schedule *Schedule
	weights  [constraintCount]int64
	impacts  [constraintCount]int64 // 已乘权重
}

func newCalculator(s *Schedule, weights [constraintCount]int64) *Calculator {
	return &Calculator{
		schedule: s,
		weights:  weights,
	}
}

func (c *Calculator) insert(a *Assignment) {
	if !a.assigned() || a.inserted {
		return
	}
	for i := range constraints {
		if w := c.weights[i]; w != 0 {
			c.impacts[i] += w * constraints[i].impact(c.schedule, a)
		}
	}
	c.schedule.index(a)
}

func (c *Calculator) retract(a *Assignment) {
	if !a.inserted {
		return
	}
	c.schedule.unindex(a)
	for i := range constraints {
		if w := c.weights[i]; w != 0 {
			c.impacts[i] -= w * constraints[i].impact(c.schedule, a)
		}
	}
}

func (c *Calculator) Score() Score {
	var score Score
	for i, impact := range c.impacts {
		if constraints[i].Kind == Hard {
			score.Hard += impact
		} else {
			score.Soft += impact
		}
	}
	return score
}

// Impact 返回某一约束当前的（已乘权重的）总惩罚
func (c *Calculator) Impact(id ConstraintID) int64 {
	return c.impacts[id]
}

// Evaluate 试探性地执行移动并返回分数变化，返回之前状态会被完全恢复
func (c *Calculator) Evaluate(m Move) (ScoreDelta, error) {
	if touchesPinned(m) {
		return ScoreDelta{}, ErrPinnedMove
	}
	before := c.Score()
	m.do(c)
	after := c.Score()
	m.undo(c)
	return after.Sub(before), nil
}

func (c *Calculator) Commit(m Move) error {
	if touchesPinned(m) {
		return ErrPinnedMove
	}
	m.do(c)
	return nil
}

// Rollback 撤销一个已经提交的移动
func (c *Calculator) Rollback(m Move) error {
	if touchesPinned(m) {
		return ErrPinnedMove
	}
	m.undo(c)
	return nil
}

// restore 把分配恢复到快照中的状态
func (c *Calculator) restore(snap []placement) {
	for i, a := range c.schedule.assignments {
		if a.employee == snap[i].employee && a.start == snap[i].start {
			continue
		}
		c.retract(a)
		a.employee, a.start = snap[i].employee, snap[i].start
		c.insert(a)
	}
}

// fullScore 在一个新的调度上从头计算分数，用于校验增量结果
func fullScore(s *Schedule, weights [constraintCount]int64) (Score, [constraintCount]int64) {
	fresh := newSchedule(s.problem)
	calc := newCalculator(fresh, weights)
	for i, a := range s.assignments {
		fresh.assignments[i].employee = a.employee
		fresh.assignments[i].start = a.start
	}
	for _, a := range fresh.assignments {
		calc.insert(a)
	}
	return calc.Score(), calc.impacts
}
