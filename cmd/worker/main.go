package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/cache"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/runner"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	solveConfig, err := cfg.SolveConfig()
	if err != nil {
		logger.Error("无法生成求解参数", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 消费和投递使用不同的通道
	consumeCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer consumeCh.Close()

	publishCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer publishCh.Close()

	if err := queue.Declare(consumeCh); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 求解是 CPU 密集的，每个 worker 同一时间只处理一个求解任务
	if err := consumeCh.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	msgs, err := consumeCh.Consume(queue.SolveQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 启动指标服务器
	 **********************************************/
	m := metrics.New()
	metricsSrv := &http.Server{
		Addr:     fmt.Sprintf(":%s", cfg.Worker.MetricsPort),
		Handler:  m.Handler(),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动指标服务器", slog.String("error", err.Error()))
		}
	}()

	r := runner.New(
		repo,
		cache.NewProgressCache(cfg, rdb),
		queue.NewPublisher(cfg, publishCh),
		m,
		solveConfig,
		cfg.Worker.ProgressBuffer,
		logger,
	)

	/**********************************************
	 * 处理求解任务
	 **********************************************/
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 取消时正在进行的求解会带着目前最优的结果结束
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				var job domain.SolveJob
				if err := json.Unmarshal(msg.Body, &job); err != nil || job.RunID == "" {
					logger.Error("无法解析求解任务", slog.String("body", string(msg.Body)))
					_ = msg.Nack(false, false)
					continue
				}

				logger.Info("开始求解", slog.String("run", job.RunID))
				if err := r.Execute(ctx, job.RunID); err != nil {
					logger.Error("求解失败", slog.String("run", job.RunID), slog.String("error", err.Error()))
					if errors.Is(err, runner.ErrRetryable) {
						_ = msg.Nack(false, true) // 将消息重新入队
						continue
					}
				}
				// 失败的求解已经记录在数据库中，重新投递也不会成功
				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待求解任务...（按 CTRL+C 退出）")
	<-sigChan

	slog.Info("正在关闭 solve worker...")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭指标服务器失败", slog.String("error", err.Error()))
	}
	slog.Info("solve worker 已成功关闭")
}
