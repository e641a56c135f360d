package domain

import (
	"encoding/json"
	"time"
)

type SolveRunStatus string

const (
	SolveRunPending  SolveRunStatus = "pending"
	SolveRunRunning  SolveRunStatus = "running"
	SolveRunFinished SolveRunStatus = "finished"
	SolveRunFailed   SolveRunStatus = "failed"
)

// SolveRun 记录一次求解任务以及它的结果
type SolveRun struct {
	ID          string           `json:"id"`
	Status      SolveRunStatus   `json:"status"`
	RequestedBy int64            `json:"requestedBy"`
	ProjectIDs  []string         `json:"projectIDs"`
	Parameters  json.RawMessage  `json:"parameters"`
	HardScore   int64            `json:"hardScore"`
	SoftScore   int64            `json:"softScore"`
	Steps       int              `json:"steps"`
	Termination string           `json:"termination"`
	Unassigned  []string         `json:"unassigned"`
	Violations  []string         `json:"violations"`
	Error       string           `json:"error,omitempty"`
	Assignments []TaskAssignment `json:"assignments"`
	CreatedAt   time.Time        `json:"createdAt"`
	FinishedAt  *time.Time       `json:"finishedAt"`
	Version     int32            `json:"-"`
}

// SolveJob 是投递到求解队列中的消息
type SolveJob struct {
	RunID string `json:"runID"`
}

// SolveProgress 是求解过程中写入缓存的进度快照
type SolveProgress struct {
	Step      int   `json:"step"`
	HardScore int64 `json:"hardScore"`
	SoftScore int64 `json:"softScore"`
	ElapsedMs int64 `json:"elapsedMs"`
}
