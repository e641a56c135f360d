package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
)

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "检查问题文件，不运行求解",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := LoadProblem(file)
			if err != nil {
				return err
			}
			if err := solver.ValidateInput(p.Tasks, p.Employees, p.Config); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "问题文件有效: %d 个员工, %d 个任务\n", len(p.Employees), len(p.Tasks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "问题文件路径")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
