package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

// Metrics 是 API 和 worker 共用的 Prometheus 指标
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec

	SolveRuns       *prometheus.CounterVec
	SolveDuration   *prometheus.HistogramVec
	SolveSteps      prometheus.Histogram
	HardScore       prometheus.Gauge
	SoftScore       prometheus.Gauge
	UnassignedTasks prometheus.Counter
	DroppedProgress prometheus.Counter
	SolveFailures   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "已处理的 HTTP 请求数",
			},
			[]string{"method", "status"},
		),

		SolveRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_solve_runs_total",
				Help: "已完成的求解次数，按终止原因区分",
			},
			[]string{"mode", "termination"},
		),
		SolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_solve_duration_seconds",
				Help:    "单次求解耗时",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		),
		SolveSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_solve_steps",
				Help:    "单次求解执行的局部搜索步数",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		HardScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_last_hard_score",
				Help: "最近一次求解的硬约束惩罚",
			},
		),
		SoftScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_last_soft_score",
				Help: "最近一次求解的软约束惩罚",
			},
		),
		UnassignedTasks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_unassigned_tasks_total",
				Help: "求解后仍未分配的任务数",
			},
		),
		DroppedProgress: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_dropped_progress_events_total",
				Help: "因为消费者太慢而被丢弃的进度通知",
			},
		),
		SolveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_solve_failures_total",
				Help: "因为输入错误或存储错误而失败的求解",
			},
		),
	}
}

// ObserveResult 记录一次求解的结果和耗时，mode 为 preview 或 worker
func (m *Metrics) ObserveResult(mode string, result *solver.Result, elapsed time.Duration) {
	m.SolveRuns.WithLabelValues(mode, string(result.Termination)).Inc()
	m.SolveDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.SolveSteps.Observe(float64(result.Steps))
	m.HardScore.Set(float64(result.Score.Hard))
	m.SoftScore.Set(float64(result.Score.Soft))
	m.UnassignedTasks.Add(float64(len(result.Unassigned)))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
