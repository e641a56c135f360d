package domain

import (
	"slices"
	"time"
)

const MinutesPerDay = 24 * 60

// Interval 表示左闭右开的时间区间 [Start, End)，单位为分钟，0 对应规划起点
type Interval struct {
	Start int `json:"start" yaml:"start" validate:"min=0"`
	End   int `json:"end" yaml:"end" validate:"gtfield=Start"`
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Employee 在一次求解过程中是只读的
type Employee struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	Name          string     `json:"name" yaml:"name"`
	Email         string     `json:"email" yaml:"email" validate:"omitempty,email"`
	Skills        []string   `json:"skills" yaml:"skills" validate:"dive,required"`
	Unavailable   []Interval `json:"unavailable" yaml:"unavailable" validate:"dive"`
	UndesiredDays []int      `json:"undesiredDays" yaml:"undesiredDays" validate:"dive,min=0"`
	DesiredDays   []int      `json:"desiredDays" yaml:"desiredDays" validate:"dive,min=0"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"-"`
	Version       int32      `json:"-" yaml:"-"`
}

func (e *Employee) HasSkills(skills []string) bool {
	for _, skill := range skills {
		if !slices.Contains(e.Skills, skill) {
			return false
		}
	}
	return true
}
