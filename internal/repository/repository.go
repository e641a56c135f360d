package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/config"
)

//go:embed schema.sql
var schema string

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// EnsureSchema 创建不存在的表，已经存在的表不会被修改
func (r *Repository) EnsureSchema() error {
	ctx, cancel := r.txContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, schema)
	return err
}

func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

// jsonb 把切片等值序列化后写入 jsonb 列，nil 切片写成空数组而不是 null
func jsonb[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// jsonbColumn 用于从 jsonb 列中扫描出切片
type jsonbColumn[T any] struct {
	dst *[]T
}

func (c jsonbColumn[T]) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c.dst = []T{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	}
	return json.Unmarshal(data, c.dst)
}

func scanJSONB[T any](dst *[]T) jsonbColumn[T] {
	return jsonbColumn[T]{dst: dst}
}
