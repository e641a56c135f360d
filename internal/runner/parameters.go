package runner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

// Parameters 是单次求解可以覆盖的参数，未填写的字段沿用服务端的默认配置
type Parameters struct {
	MaxSteps          *int             `json:"maxSteps,omitempty" validate:"omitempty,min=0"`
	MaxDuration       *int             `json:"maxDuration,omitempty" validate:"omitempty,min=0"` // 秒
	PlateauSteps      *int             `json:"plateauSteps,omitempty" validate:"omitempty,min=0"`
	HorizonStart      *time.Time       `json:"horizonStart,omitempty"`
	HorizonDays       *int             `json:"horizonDays,omitempty" validate:"omitempty,min=1,max=366"`
	AllowWeekends     *bool            `json:"allowWeekends,omitempty"`
	RandomSeed        *int64           `json:"randomSeed,omitempty"`
	ConstraintWeights map[string]int64 `json:"constraintWeights,omitempty"`
}

// DecodeParameters 解析保存在数据库中的参数，空值视为没有覆盖任何参数
func DecodeParameters(raw json.RawMessage) (Parameters, error) {
	var p Parameters
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("无法解析求解参数: %w", err)
	}
	return p, nil
}

// Apply 在 base 的基础上覆盖参数，权重按约束名逐个覆盖
func (p Parameters) Apply(base solver.Config) solver.Config {
	cfg := base
	if p.MaxSteps != nil {
		cfg.MaxSteps = *p.MaxSteps
	}
	if p.MaxDuration != nil {
		cfg.MaxDuration = time.Duration(*p.MaxDuration) * time.Second
	}
	if p.PlateauSteps != nil {
		cfg.PlateauSteps = *p.PlateauSteps
	}
	if p.HorizonStart != nil {
		cfg.HorizonStart = *p.HorizonStart
	}
	if p.HorizonDays != nil {
		cfg.HorizonDays = *p.HorizonDays
	}
	if p.AllowWeekends != nil {
		cfg.AllowWeekends = *p.AllowWeekends
	}
	if p.RandomSeed != nil {
		cfg.RandomSeed = *p.RandomSeed
	}

	if len(p.ConstraintWeights) > 0 {
		weights := make(map[string]int64, len(base.ConstraintWeights)+len(p.ConstraintWeights))
		for name, w := range base.ConstraintWeights {
			weights[name] = w
		}
		for name, w := range p.ConstraintWeights {
			weights[name] = w
		}
		cfg.ConstraintWeights = weights
	}

	return cfg
}
