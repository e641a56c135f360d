package solver

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateInput 在创建任何搜索状态之前检查输入。
// 结构性错误（依赖图有环、引用了其他批次的任务）返回 ErrMalformedTaskGraph，
// 其余字段错误返回 ErrInvalidInput。
func ValidateInput(tasks []domain.Task, employees []domain.Employee, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	employeeIDs := make(map[string]bool, len(employees))
	for i := range employees {
		e := &employees[i]
		if err := validate.Struct(e); err != nil {
			return fmt.Errorf("%w: employee %q: %v", ErrInvalidInput, e.ID, err)
		}
		if employeeIDs[e.ID] {
			return fmt.Errorf("%w: duplicate employee id %q", ErrInvalidInput, e.ID)
		}
		employeeIDs[e.ID] = true
	}

	for i := range tasks {
		t := &tasks[i]
		if err := validate.Struct(t); err != nil {
			return fmt.Errorf("%w: task %q: %v", ErrInvalidInput, t.ID, err)
		}
		if t.Pinned {
			if t.PinnedEmployeeID == "" && len(employees) != 1 {
				return fmt.Errorf("%w: pinned task %q has no employee", ErrInvalidInput, t.ID)
			}
			if t.PinnedEmployeeID != "" && !employeeIDs[t.PinnedEmployeeID] {
				return fmt.Errorf("%w: pinned task %q references unknown employee %q", ErrInvalidInput, t.ID, t.PinnedEmployeeID)
			}
			continue
		}
		if len(t.RequiredSkills) == 0 {
			return fmt.Errorf("%w: task %q requires no skill", ErrInvalidInput, t.ID)
		}
	}

	if _, err := buildGraph(tasks); err != nil {
		return err
	}

	return nil
}
