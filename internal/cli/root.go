package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "离线求解任务分配问题",
		Long: `planner 读取 YAML 格式的问题文件，在本地运行求解器并输出结果。

问题文件包含三部分：
  config     求解参数，未填写的字段使用默认值
  employees  员工及其技能和不可用时间
  tasks      任务、依赖关系以及固定的日历事件

示例:
  planner validate -f problem.yaml
  planner solve -f problem.yaml --max-steps 2000 --seed 42`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出求解过程中的日志")
	cmd.AddCommand(newSolveCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

func Execute() error {
	return newRootCmd().Execute()
}
