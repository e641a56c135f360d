package main

import (
	"os"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
