package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
	"gopkg.in/yaml.v3"
)

type solveOptions struct {
	file        string
	seed        int64
	maxSteps    int
	maxDuration time.Duration
	weights     string
	format      string
	progress    bool
}

func newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "求解问题文件并输出结果",
		Long: `求解问题文件并把结果输出到标准输出。

按 CTRL+C 会提前结束搜索并输出目前为止最优的结果。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "问题文件路径")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "随机种子，覆盖问题文件中的 randomSeed")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "最大步数，覆盖问题文件中的 maxSteps")
	cmd.Flags().DurationVar(&opts.maxDuration, "max-duration", 0, "最长求解时间，例如 30s")
	cmd.Flags().StringVar(&opts.weights, "weights", "", "YAML 格式的约束权重文件")
	cmd.Flags().StringVar(&opts.format, "format", "json", "输出格式 (json 或 yaml)")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "在标准错误输出中打印搜索进度")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSolve(cmd *cobra.Command, opts *solveOptions) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("不支持的输出格式 %q", opts.format)
	}

	p, err := LoadProblem(opts.file)
	if err != nil {
		return err
	}

	cfg := p.Config
	if cmd.Flags().Changed("seed") {
		cfg.RandomSeed = opts.seed
	}
	if cmd.Flags().Changed("max-steps") {
		cfg.MaxSteps = opts.maxSteps
	}
	if cmd.Flags().Changed("max-duration") {
		cfg.MaxDuration = opts.maxDuration
	}
	if opts.weights != "" {
		weights, err := config.LoadWeightsFile(opts.weights)
		if err != nil {
			return err
		}
		cfg.ConstraintWeights = weights
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	solveOpts := []solver.Option{solver.WithLogger(slog.Default())}
	if opts.progress {
		stderr := cmd.ErrOrStderr()
		solveOpts = append(solveOpts, solver.WithObserver(solver.ObserverFunc(func(pr solver.Progress) {
			fmt.Fprintf(stderr, "step=%d score=%s best=%s elapsed=%s\n", pr.Step, pr.Score, pr.BestScore, pr.Elapsed.Round(time.Millisecond))
		})))
	}

	result, err := solver.Solve(ctx, p.Tasks, p.Employees, cfg, solveOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "yaml" {
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(result)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
