package solver

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

// Config 是一次求解的全部参数，每次调用 Solve 时显式传入，求解器本身不保存任何全局状态
type Config struct {
	// 终止条件，值为 0 表示不使用该条件
	MaxSteps     int           `json:"maxSteps" yaml:"maxSteps"`
	MaxDuration  time.Duration `json:"maxDuration" yaml:"maxDuration"`
	PlateauSteps int           `json:"plateauSteps" yaml:"plateauSteps"`

	// 规划范围。分钟 0 对应 HorizonStart，零值的 HorizonStart 恰好是星期一
	HorizonStart time.Time `json:"horizonStart" yaml:"horizonStart"`
	HorizonDays  int       `json:"horizonDays" yaml:"horizonDays"`

	// 每天的工作时间窗口，单位为一天中的第几分钟
	WorkHoursStart int  `json:"workHoursStart" yaml:"workHoursStart"`
	WorkHoursEnd   int  `json:"workHoursEnd" yaml:"workHoursEnd"`
	AllowWeekends  bool `json:"allowWeekends" yaml:"allowWeekends"`

	MinGapMinutes    int   `json:"minGapMinutes" yaml:"minGapMinutes"`
	Granularity      int   `json:"granularity" yaml:"granularity"`
	SampleSize       int   `json:"sampleSize" yaml:"sampleSize"`
	InitialTolerance int64 `json:"initialTolerance" yaml:"initialTolerance"`
	ProgressInterval int   `json:"progressInterval" yaml:"progressInterval"`
	RandomSeed       int64 `json:"randomSeed" yaml:"randomSeed"`

	// 约束名 -> 权重，未出现的约束使用默认权重
	ConstraintWeights map[string]int64 `json:"constraintWeights" yaml:"constraintWeights"`
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:         5000,
		MaxDuration:      30 * time.Second,
		PlateauSteps:     1000,
		HorizonDays:      14,
		WorkHoursStart:   8 * 60,
		WorkHoursEnd:     18 * 60,
		AllowWeekends:    false,
		MinGapMinutes:    15,
		Granularity:      15,
		SampleSize:       24,
		InitialTolerance: 120,
		ProgressInterval: 100,
		RandomSeed:       1,
	}
}

// withDefaults 为没有填写的字段补上默认值
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxSteps == 0 && c.MaxDuration == 0 && c.PlateauSteps == 0 {
		c.MaxSteps = def.MaxSteps
		c.MaxDuration = def.MaxDuration
		c.PlateauSteps = def.PlateauSteps
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.WorkHoursStart == 0 && c.WorkHoursEnd == 0 {
		c.WorkHoursStart = def.WorkHoursStart
		c.WorkHoursEnd = def.WorkHoursEnd
	}
	if c.Granularity == 0 {
		c.Granularity = def.Granularity
	}
	if c.SampleSize == 0 {
		c.SampleSize = def.SampleSize
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = def.ProgressInterval
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.MaxSteps < 0 || c.MaxDuration < 0 || c.PlateauSteps < 0:
		return fmt.Errorf("%w: termination limits must not be negative", ErrInvalidConfig)
	case c.MaxSteps == 0 && c.MaxDuration == 0:
		return fmt.Errorf("%w: either maxSteps or maxDuration must be set", ErrInvalidConfig)
	case c.HorizonDays <= 0:
		return fmt.Errorf("%w: horizonDays must be positive", ErrInvalidConfig)
	case c.WorkHoursStart < 0 || c.WorkHoursEnd > domain.MinutesPerDay || c.WorkHoursStart >= c.WorkHoursEnd:
		return fmt.Errorf("%w: work hours window [%d, %d) is invalid", ErrInvalidConfig, c.WorkHoursStart, c.WorkHoursEnd)
	case c.MinGapMinutes < 0:
		return fmt.Errorf("%w: minGapMinutes must not be negative", ErrInvalidConfig)
	case c.Granularity <= 0 || c.SampleSize <= 0 || c.ProgressInterval <= 0:
		return fmt.Errorf("%w: granularity, sampleSize and progressInterval must be positive", ErrInvalidConfig)
	case c.InitialTolerance < 0:
		return fmt.Errorf("%w: initialTolerance must not be negative", ErrInvalidConfig)
	}

	for name, weight := range c.ConstraintWeights {
		if _, ok := ConstraintByName(name); !ok {
			return fmt.Errorf("%w: unknown constraint %q", ErrInvalidConfig, name)
		}
		if weight < 0 {
			return fmt.Errorf("%w: weight of %q must not be negative", ErrInvalidConfig, name)
		}
	}

	return nil
}

// TimeAt 把规划分钟数转换成实际时间
func (c Config) TimeAt(minute int) time.Time {
	return c.HorizonStart.Add(time.Duration(minute) * time.Minute)
}
