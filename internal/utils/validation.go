package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

// ValidateEmployee 检查字段标签无法表达的约束
func ValidateEmployee(e *domain.Employee) error {
	for i, iv := range e.Unavailable {
		if iv.End <= iv.Start {
			return fmt.Errorf("第 %d 个不可用时间段的结束时间必须晚于开始时间", i+1)
		}
	}

	for _, day := range e.DesiredDays {
		if slices.Contains(e.UndesiredDays, day) {
			return fmt.Errorf("第 %d 天不能同时是想上班和不想上班的日子", day)
		}
	}

	seen := make(map[string]bool, len(e.Skills))
	for _, skill := range e.Skills {
		if seen[skill] {
			return fmt.Errorf("技能 %s 重复", skill)
		}
		seen[skill] = true
	}

	return nil
}

// ValidateTaskBatch 检查一批任务内部的一致性，依赖图本身由求解器检查
func ValidateTaskBatch(tasks []domain.Task) error {
	if len(tasks) == 0 {
		return errors.New("任务列表不能为空")
	}

	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if ids[t.ID] {
			return fmt.Errorf("任务ID %s 重复", t.ID)
		}
		ids[t.ID] = true
	}

	for _, t := range tasks {
		if slices.Contains(t.Predecessors, t.ID) {
			return fmt.Errorf("任务 %s 不能依赖自己", t.ID)
		}
		if t.Pinned {
			continue
		}
		if len(t.RequiredSkills) == 0 {
			return fmt.Errorf("任务 %s 至少需要一项技能", t.ID)
		}
	}

	return nil
}
