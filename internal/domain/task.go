package domain

import "time"

type Task struct {
	ID             string   `json:"id" yaml:"id" validate:"required"`
	ProjectID      string   `json:"projectID" yaml:"projectID"`
	Description    string   `json:"description" yaml:"description"`
	Sequence       int      `json:"sequence" yaml:"sequence" validate:"min=0"`
	Duration       int      `json:"duration" yaml:"duration" validate:"gt=0"` // 分钟
	RequiredSkills []string `json:"requiredSkills" yaml:"requiredSkills" validate:"dive,required"`
	Predecessors   []string `json:"predecessors" yaml:"predecessors" validate:"dive,required"`
	EarliestStart  int      `json:"earliestStart" yaml:"earliestStart" validate:"min=0"`

	// 从日历导入的事件会被固定，求解器不会移动它们
	Pinned           bool   `json:"pinned" yaml:"pinned"`
	PinnedStart      int    `json:"pinnedStart" yaml:"pinnedStart" validate:"min=0"`
	PinnedEmployeeID string `json:"pinnedEmployeeID" yaml:"pinnedEmployeeID"`

	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	Version   int32     `json:"-" yaml:"-"`
}

// TaskAssignment 是求解结果中的一项，End 总是等于 Start + Duration
type TaskAssignment struct {
	TaskID     string `json:"taskID" yaml:"taskID"`
	EmployeeID string `json:"employeeID" yaml:"employeeID"`
	Start      int    `json:"start" yaml:"start"`
	End        int    `json:"end" yaml:"end"`
	Pinned     bool   `json:"pinned" yaml:"pinned"`
}
