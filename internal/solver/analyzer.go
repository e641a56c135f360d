package solver

import (
	"fmt"
	"slices"
	"strings"
)

// analyze 解释为什么结果不可行或只完成了一部分
func analyze(p *problem, calc *Calculator, unassigned []UnassignedTask) []string {
	var violations []string

	// 所有员工都没有的技能
	available := make(map[string]struct{})
	for _, e := range p.employees {
		for skill := range e.skills {
			available[skill] = struct{}{}
		}
	}
	missing := make(map[string][]string)
	for _, t := range p.tasks {
		if t.pinned {
			continue
		}
		for _, skill := range t.skills {
			if _, ok := available[skill]; !ok {
				missing[skill] = append(missing[skill], t.id)
			}
		}
	}
	skills := make([]string, 0, len(missing))
	for skill := range missing {
		skills = append(skills, skill)
	}
	slices.Sort(skills)
	for _, skill := range skills {
		violations = append(violations, fmt.Sprintf("没有员工具备技能 %q，需要该技能的任务：%s", skill, strings.Join(missing[skill], ", ")))
	}

	// 容量
	demand := 0
	for _, t := range p.tasks {
		if !t.pinned {
			demand += t.duration
		}
	}
	capacity := p.workingMinutes() * len(p.employees)
	if demand > capacity {
		violations = append(violations, fmt.Sprintf("任务总时长 %d 分钟超过了全部员工在规划范围内的工作时长 %d 分钟", demand, capacity))
	}

	for _, u := range unassigned {
		violations = append(violations, fmt.Sprintf("任务 %s 未被分配：%s", u.TaskID, u.Reason))
	}

	for _, c := range constraints {
		if c.Kind != Hard {
			continue
		}
		if impact := calc.Impact(c.ID); impact != 0 {
			violations = append(violations, fmt.Sprintf("硬约束 %s 被违反，惩罚为 %d", c.Name, impact))
		}
	}

	return violations
}
