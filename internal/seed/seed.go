package seed

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/repository"
)

//go:embed data/*.csv
var data embed.FS

var employeeHeaders = []string{"id", "姓名", "邮箱", "技能", "不可用时间", "不想上班", "想上班"}
var taskHeaders = []string{"id", "项目", "描述", "时长", "技能", "前置任务", "最早开始", "固定员工", "固定开始"}

// readRecords 读取 CSV 并按表头把每一行转换成 map，缺少任何一列都会报错
func readRecords(r io.Reader, required []string) ([]map[string]string, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for _, h := range required {
		found := false
		for _, header := range headers {
			if header == h {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("没有找到列 %s", h)
		}
	}

	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}
		records = append(records, record)
	}

	return records, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	out := make([]int, 0)
	for _, part := range splitList(s) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("无法解析整数 %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseIntervals(s string) ([]domain.Interval, error) {
	out := make([]domain.Interval, 0)
	for _, part := range splitList(s) {
		start, end, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("时间段 %q 格式错误", part)
		}
		bounds, err := parseInts(start + ";" + end)
		if err != nil || len(bounds) != 2 {
			return nil, fmt.Errorf("时间段 %q 格式错误", part)
		}
		out = append(out, domain.Interval{Start: bounds[0], End: bounds[1]})
	}
	return out, nil
}

func parseIntOr(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func ParseEmployees(r io.Reader) ([]*domain.Employee, error) {
	records, err := readRecords(r, employeeHeaders)
	if err != nil {
		return nil, err
	}

	employees := make([]*domain.Employee, 0, len(records))
	for i, record := range records {
		e := &domain.Employee{
			ID:     record["id"],
			Name:   record["姓名"],
			Email:  record["邮箱"],
			Skills: splitList(record["技能"]),
		}
		if e.ID == "" {
			return nil, fmt.Errorf("第 %d 行没有员工ID", i+2)
		}
		if e.Unavailable, err = parseIntervals(record["不可用时间"]); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", i+2, err)
		}
		if e.UndesiredDays, err = parseInts(record["不想上班"]); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", i+2, err)
		}
		if e.DesiredDays, err = parseInts(record["想上班"]); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", i+2, err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}

// ParseTasks 解析任务表，填写了固定员工的任务视为从日历导入的固定任务。
// 同一项目内任务的 sequence 按出现顺序递增。
func ParseTasks(r io.Reader) ([]domain.Task, error) {
	records, err := readRecords(r, taskHeaders)
	if err != nil {
		return nil, err
	}

	sequences := make(map[string]int)
	tasks := make([]domain.Task, 0, len(records))
	for i, record := range records {
		t := domain.Task{
			ID:               record["id"],
			ProjectID:        record["项目"],
			Description:      record["描述"],
			RequiredSkills:   splitList(record["技能"]),
			Predecessors:     splitList(record["前置任务"]),
			PinnedEmployeeID: record["固定员工"],
			Pinned:           record["固定员工"] != "",
		}
		if t.ID == "" {
			return nil, fmt.Errorf("第 %d 行没有任务ID", i+2)
		}
		if t.Duration, err = strconv.Atoi(record["时长"]); err != nil {
			return nil, fmt.Errorf("第 %d 行: 无法解析时长 %q", i+2, record["时长"])
		}
		if t.EarliestStart, err = parseIntOr(record["最早开始"], 0); err != nil {
			return nil, fmt.Errorf("第 %d 行: 无法解析最早开始时间 %q", i+2, record["最早开始"])
		}
		if t.PinnedStart, err = parseIntOr(record["固定开始"], 0); err != nil {
			return nil, fmt.Errorf("第 %d 行: 无法解析固定开始时间 %q", i+2, record["固定开始"])
		}

		t.Sequence = sequences[t.ProjectID]
		sequences[t.ProjectID]++
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// DemoData 返回内置的示例员工和任务
func DemoData() ([]*domain.Employee, []domain.Task, error) {
	ef, err := data.Open("data/employees.csv")
	if err != nil {
		return nil, nil, err
	}
	defer ef.Close()

	employees, err := ParseEmployees(ef)
	if err != nil {
		return nil, nil, fmt.Errorf("employees.csv: %w", err)
	}

	tf, err := data.Open("data/tasks.csv")
	if err != nil {
		return nil, nil, err
	}
	defer tf.Close()

	tasks, err := ParseTasks(tf)
	if err != nil {
		return nil, nil, fmt.Errorf("tasks.csv: %w", err)
	}

	return employees, tasks, nil
}

func SeedDemoData(r *repository.Repository) {
	employees, tasks, err := DemoData()
	if err != nil {
		slog.Error("读取示例数据失败", "error", err)
		return
	}

	for _, e := range employees {
		if err := r.CreateEmployee(e); err != nil {
			slog.Error("插入员工失败", "id", e.ID, "error", err)
			continue
		}
	}

	ptrs := make([]*domain.Task, len(tasks))
	for i := range tasks {
		ptrs[i] = &tasks[i]
	}
	if err := r.CreateTasks(ptrs); err != nil {
		slog.Error("插入任务失败", "error", err)
		return
	}

	slog.Info("插入示例数据完成", "employees", len(employees), "tasks", len(tasks))
}
