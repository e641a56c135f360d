package cli

import (
	"fmt"
	"os"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
	"gopkg.in/yaml.v3"
)

// Problem 是离线求解使用的问题文件
type Problem struct {
	Config    solver.Config     `yaml:"config"`
	Employees []domain.Employee `yaml:"employees"`
	Tasks     []domain.Task     `yaml:"tasks"`
}

// LoadProblem 读取 YAML 问题文件，config 中没有出现的字段使用默认值
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取问题文件失败: %w", err)
	}

	p := &Problem{Config: solver.DefaultConfig()}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("解析问题文件失败: %w", err)
	}

	return p, nil
}
