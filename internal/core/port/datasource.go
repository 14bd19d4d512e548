// Package port file: internal/core/port/datasource.go
package port

import (
	"context"
	"database/sql"
)

// Executor 是存储边界：*sql.DB 与 *sql.Tx 都满足该接口
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner 用于需要事务的多步写操作
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Database 同时具备执行与开启事务的能力 (通常就是 *sql.DB)
type Database interface {
	Executor
	TxBeginner
}

// Page 是分页查询的统一返回信封
type Page[T any] struct {
	Rows             []*T  `json:"rows"`
	TotalInCondition int64 `json:"totalInCondition"`
	Total            int64 `json:"total"`
}
