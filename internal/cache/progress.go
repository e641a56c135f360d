package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

// ErrNoProgress 表示缓存中没有该次求解的进度，可能尚未开始或者已经过期
var ErrNoProgress = errors.New("no progress recorded")

// ProgressCache 保存正在运行的求解任务的最新进度，由 worker 写入、API 读取
type ProgressCache struct {
	rdb        *redis.Client
	timeout    time.Duration
	expiration time.Duration
}

func NewProgressCache(cfg *config.Config, rdb *redis.Client) *ProgressCache {
	return &ProgressCache{
		rdb:        rdb,
		timeout:    time.Duration(cfg.Redis.OperationExpiration) * time.Minute,
		expiration: time.Duration(cfg.Redis.ProgressExpiration) * time.Second,
	}
}

func progressKey(runID string) string {
	return fmt.Sprintf("solve_run_progress_%s", runID)
}

func (c *ProgressCache) Set(ctx context.Context, runID string, p domain.SolveProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.rdb.Set(ctx, progressKey(runID), data, c.expiration).Err()
}

func (c *ProgressCache) Get(ctx context.Context, runID string) (domain.SolveProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var p domain.SolveProgress
	data, err := c.rdb.Get(ctx, progressKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return p, ErrNoProgress
		}
		return p, err
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}

	return p, nil
}

func (c *ProgressCache) Delete(ctx context.Context, runID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.rdb.Del(ctx, progressKey(runID)).Err()
}
