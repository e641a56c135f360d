package solver

// UnassignedTask 是构造阶段无法安排的任务
type UnassignedTask struct {
	TaskID string `json:"taskID" yaml:"taskID"`
	Reason string `json:"reason" yaml:"reason"`
}

// construct 贪心地生成初始调度。
// 固定任务先按原样放入；其余任务按拓扑序逐个放到最早有空闲时段的员工上，
// 开始时间相同时选择当前负载较小的员工，负载也相同时按员工的输入顺序。
func construct(s *Schedule, calc *Calculator) []UnassignedTask {
	for _, a := range s.assignments {
		if a.task.pinned {
			a.employee = a.task.pinnedEmployee
			a.start = a.task.pinnedStart
			calc.insert(a)
		}
	}

	var unassigned []UnassignedTask
	for _, i := range s.problem.order {
		a := s.assignments[i]
		t := a.task
		if t.pinned {
			continue
		}
		if len(t.eligible) == 0 {
			unassigned = append(unassigned, UnassignedTask{TaskID: t.id, Reason: ErrNoEligibleEmployee.Error()})
			continue
		}

		best, bestStart, bestFits := -1, 0, false
		for _, e := range t.eligible {
			start, fits := s.earliestSlot(t, e, nil)
			if best >= 0 && !placementBetter(s, e, start, fits, best, bestStart, bestFits) {
				continue
			}
			best, bestStart, bestFits = e, start, fits
		}

		a.employee = best
		a.start = bestStart
		calc.insert(a)
	}

	return unassigned
}

func placementBetter(s *Schedule, e, start int, fits bool, best, bestStart int, bestFits bool) bool {
	if fits != bestFits {
		return fits
	}
	if start != bestStart {
		return start < bestStart
	}
	return s.loads[e] < s.loads[best]
}
