package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

func newTestCache(t *testing.T) (*ProgressCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.Redis.OperationExpiration = 5
	cfg.Redis.ProgressExpiration = 60

	return NewProgressCache(cfg, rdb), mr
}

func TestProgressCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	want := domain.SolveProgress{Step: 300, HardScore: 0, SoftScore: 42, ElapsedMs: 1500}
	require.NoError(t, c.Set(ctx, "run-1", want))

	got, err := c.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.True(t, mr.Exists("solve_run_progress_run-1"))
	assert.Equal(t, 60*time.Second, mr.TTL("solve_run_progress_run-1"))
}

func TestProgressCache_Missing(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestProgressCache_ExpiresAndDeletes(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "run-2", domain.SolveProgress{Step: 1}))
	mr.FastForward(61 * time.Second)
	_, err := c.Get(ctx, "run-2")
	assert.ErrorIs(t, err, ErrNoProgress)

	require.NoError(t, c.Set(ctx, "run-3", domain.SolveProgress{Step: 2}))
	require.NoError(t, c.Delete(ctx, "run-3"))
	_, err = c.Get(ctx, "run-3")
	assert.ErrorIs(t, err, ErrNoProgress)
}
