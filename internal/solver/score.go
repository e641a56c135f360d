package solver

import "fmt"

// Score 记录硬约束和软约束的惩罚值，数值越小越好。
// 任何硬约束的违反都比任意数量的软约束惩罚更严重。
type Score struct {
	Hard int64 `json:"hardScore" yaml:"hardScore"`
	Soft int64 `json:"softScore" yaml:"softScore"`
}

// ScoreDelta 表示一次移动带来的分数变化
type ScoreDelta = Score

func (s Score) Add(o Score) Score {
	return Score{Hard: s.Hard + o.Hard, Soft: s.Soft + o.Soft}
}

func (s Score) Sub(o Score) Score {
	return Score{Hard: s.Hard - o.Hard, Soft: s.Soft - o.Soft}
}

// Compare 按字典序比较：返回负数表示 s 更好
func (s Score) Compare(o Score) int {
	switch {
	case s.Hard < o.Hard:
		return -1
	case s.Hard > o.Hard:
		return 1
	case s.Soft < o.Soft:
		return -1
	case s.Soft > o.Soft:
		return 1
	}
	return 0
}

func (s Score) Better(o Score) bool {
	return s.Compare(o) < 0
}

func (s Score) Feasible() bool {
	return s.Hard == 0
}

func (s Score) String() string {
	return fmt.Sprintf("%dhard/%dsoft", s.Hard, s.Soft)
}
