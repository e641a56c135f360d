package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTaskGraph 表示依赖关系中存在环或者引用了不存在的任务，在构造阶段之前就会被拒绝
	ErrMalformedTaskGraph = errors.New("malformed task graph")
	ErrInvalidInput       = errors.New("invalid solver input")
	ErrInvalidConfig      = errors.New("invalid solver config")

	// ErrNoEligibleEmployee 只作为未分配任务的原因出现，不会从 Solve 返回
	ErrNoEligibleEmployee = errors.New("no eligible employee")
	ErrPinnedMove         = errors.New("move touches a pinned task")
)

type GraphError struct {
	TaskID string
	Reason string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("task %q: %s", e.TaskID, e.Reason)
}

func (e *GraphError) Unwrap() error {
	return ErrMalformedTaskGraph
}
