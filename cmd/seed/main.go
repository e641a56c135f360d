package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var length int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机员工, 3: 插入随机项目, 4: 插入示例数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&length, "length", 4, "随机项目中的任务数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.EnsureSchema(); err != nil {
		logger.Error("无法初始化数据库表结构", "error", err)
		return
	}

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}
		cnt := 0
		for range n {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}
			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
			return
		}
		cnt := 0
		for range n {
			e := utils.GenerateRandomEmployee(cfg.Email.UserDomain, cfg.Solver.HorizonDays)
			if err := repo.CreateEmployee(e); err != nil {
				slog.Error("无法插入员工", slog.String("id", e.ID), slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("插入员工成功", slog.Int("count", cnt))
	case 3:
		if n <= 0 || length <= 0 {
			slog.Error("请输入合法的项目数量和任务数量")
			return
		}
		cnt := 0
		for range n {
			tasks := utils.GenerateRandomProject("proj-"+utils.GenerateRandomID(3, 3), length)
			ptrs := make([]*domain.Task, len(tasks))
			for i := range tasks {
				ptrs[i] = &tasks[i]
			}
			if err := repo.CreateTasks(ptrs); err != nil {
				slog.Error("无法插入项目", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("插入项目成功", slog.Int("count", cnt))
	case 4:
		seed.SeedDemoData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
