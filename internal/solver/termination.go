package solver

import "time"

type TerminationReason string

const (
	StepLimit TerminationReason = "StepLimit"
	TimeLimit TerminationReason = "TimeLimit"
	Plateau   TerminationReason = "Plateau"
	Cancelled TerminationReason = "Cancelled"
)

// termination 在每一步开始前被检查，值为 0 的限制不生效
type termination struct {
	maxSteps     int
	maxDuration  time.Duration
	plateauSteps int
	started      time.Time
}

func newTermination(cfg Config, started time.Time) *termination {
	return &termination{
		maxSteps:     cfg.MaxSteps,
		maxDuration:  cfg.MaxDuration,
		plateauSteps: cfg.PlateauSteps,
		started:      started,
	}
}

func (t *termination) check(steps, sinceImprovement int) (TerminationReason, bool) {
	switch {
	case t.maxSteps > 0 && steps >= t.maxSteps:
		return StepLimit, true
	case t.maxDuration > 0 && time.Since(t.started) >= t.maxDuration:
		return TimeLimit, true
	case t.plateauSteps > 0 && sinceImprovement >= t.plateauSteps:
		return Plateau, true
	}
	return "", false
}
