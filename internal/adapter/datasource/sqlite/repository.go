// Package sqlite file: internal/adapter/datasource/sqlite/repository.go
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"
	"ShopAegis/internal/query"

	sq "github.com/Masterminds/squirrel"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 500
)

// Model 描述一个实体与其数据表之间的映射
type Model[T any] struct {
	Schema *query.Schema
	// Hydrate 把一行记录还原为实体
	Hydrate func(rec Record) *T
	// Dehydrate 返回实体中可写的业务列，不含 id 与时间戳列
	Dehydrate func(e *T) map[string]any
}

// Entity 约束实体指针必须暴露公共元数据
type Entity[T any] interface {
	*T
	Metadata() *domain.Meta
}

// ListOptions 是列表查询参数。Page/Limit 为 nil 时取默认值。
type ListOptions struct {
	Page    *int
	Limit   *int
	Where   query.Where
	OrderBy []query.OrderTerm
}

// Repository 是针对单个实体表的通用 CRUD 实现，所有删除都是软删除
type Repository[T any, P Entity[T]] struct {
	exec  port.Executor
	model Model[T]
	now   func() time.Time
}

// NewRepository 创建仓储。exec 可以是 *sql.DB 或 *sql.Tx。
func NewRepository[T any, P Entity[T]](exec port.Executor, model Model[T]) *Repository[T, P] {
	return &Repository[T, P]{exec: exec, model: model, now: func() time.Time { return time.Now().UTC() }}
}

// WithExecutor 返回绑定到另一个执行器(通常是事务)的副本
func (r *Repository[T, P]) WithExecutor(exec port.Executor) *Repository[T, P] {
	cp := *r
	cp.exec = exec
	return &cp
}

func (r *Repository[T, P]) Schema() *query.Schema { return r.model.Schema }

func (r *Repository[T, P]) table() string { return query.QuoteIdent(r.model.Schema.Table) }

func (r *Repository[T, P]) column(field string) string {
	col, err := r.model.Schema.Fields.Column(field)
	if err != nil {
		// 元字段在所有模型中都必须存在，缺失属于编程错误
		panic(err)
	}
	return col
}

func (r *Repository[T, P]) notDeleted() sq.Sqlizer {
	return sq.Expr(r.column("deletedAt") + " IS NULL")
}

// applySoftDelete 在过滤树没有显式引用 deletedAt 时排除已删除行
func (r *Repository[T, P]) applySoftDelete(b sq.SelectBuilder, w query.Where) sq.SelectBuilder {
	b = b.Where(w)
	if !w.References("deletedAt") {
		b = b.Where(r.notDeleted())
	}
	return b
}

// Get 按主键读取。行不存在或已被软删除时返回 nil, nil。
func (r *Repository[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	b := sq.Select(r.model.Schema.Fields.All()...).
		From(r.table()).
		Where(sq.Expr(r.column("id")+" = ?", id)).
		Where(r.notDeleted()).
		Limit(1)
	items, err := r.selectRows(ctx, "get", b)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// FindOne 返回第一条满足条件的记录，没有时返回 nil, nil
func (r *Repository[T, P]) FindOne(ctx context.Context, w query.Where) (*T, error) {
	b := r.applySoftDelete(sq.Select(r.model.Schema.Fields.All()...).From(r.table()), w).Limit(1)
	items, err := r.selectRows(ctx, "find_one", b)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// GetAll 按条件、排序与分页读取一页记录
func (r *Repository[T, P]) GetAll(ctx context.Context, opts ListOptions) ([]*T, error) {
	page, limit, err := ResolvePagination(opts.Page, opts.Limit)
	if err != nil {
		return nil, err
	}
	b := r.applySoftDelete(sq.Select(r.model.Schema.Fields.All()...).From(r.table()), opts.Where)
	if len(opts.OrderBy) > 0 {
		b = b.OrderBy(query.OrderByClauses(opts.OrderBy)...)
	} else {
		b = b.OrderBy(r.column("id") + " ASC")
	}
	b = b.Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
	items, err := r.selectRows(ctx, "get_all", b)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*T{}
	}
	return items, nil
}

// Count 统计满足条件的记录数，软删除规则与 GetAll 相同
func (r *Repository[T, P]) Count(ctx context.Context, w query.Where) (int64, error) {
	b := r.applySoftDelete(sq.Select("COUNT(*)").From(r.table()), w)
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return 0, r.fail("count", err)
	}
	var n int64
	if err := r.exec.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, r.fail("count", err)
	}
	return n, nil
}

// Insert 插入一个新实体，成功后回填 ID 与 CreatedAt
func (r *Repository[T, P]) Insert(ctx context.Context, e *T) error {
	meta := P(e).Metadata()
	if meta.State() != domain.StateNew {
		return port.InvalidState("Cannot insert %s entity in state %s", r.model.Schema.Table, meta.State())
	}
	now := r.now()
	values := r.model.Dehydrate(e)
	values["createdAt"] = now

	cols := sortedKeys(values)
	args := make([]any, 0, len(cols))
	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, query.QuoteIdent(c))
		args = append(args, values[c])
	}
	sqlStr, sqlArgs, err := sq.Insert(r.table()).Columns(quoted...).Values(args...).ToSql()
	if err != nil {
		return r.fail("insert", err)
	}
	res, err := r.exec.ExecContext(ctx, sqlStr, sqlArgs...)
	if err != nil {
		return r.fail("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return r.fail("insert", err)
	}
	meta.ID = id
	meta.CreatedAt = now
	return nil
}

// Update 写回一个已持久化的实体。目标行不存在或已删除时返回 false。
func (r *Repository[T, P]) Update(ctx context.Context, e *T) (bool, error) {
	meta := P(e).Metadata()
	if meta.State() != domain.StatePersisted {
		return false, port.InvalidState("Cannot update %s entity in state %s", r.model.Schema.Table, meta.State())
	}
	now := r.now()
	values := r.model.Dehydrate(e)
	values["updatedAt"] = now

	set := make(map[string]any, len(values))
	for k, v := range values {
		set[query.QuoteIdent(k)] = v
	}
	b := sq.Update(r.table()).SetMap(set).
		Where(sq.Expr(r.column("id")+" = ?", meta.ID)).
		Where(r.notDeleted())
	ok, err := r.execAffecting(ctx, "update", b)
	if err != nil || !ok {
		return ok, err
	}
	meta.UpdatedAt = &now
	return true, nil
}

// Delete 软删除一个已持久化的实体，成功后回填 DeletedAt。
// 目标行不存在或已删除时返回 false。
func (r *Repository[T, P]) Delete(ctx context.Context, e *T) (bool, error) {
	meta := P(e).Metadata()
	if meta.State() != domain.StatePersisted {
		return false, port.InvalidState("Cannot delete %s entity in state %s", r.model.Schema.Table, meta.State())
	}
	now := r.now()
	ok, err := r.execAffecting(ctx, "delete", r.softDelete(meta.ID, now))
	if err != nil || !ok {
		return ok, err
	}
	meta.DeletedAt = &now
	return true, nil
}

// DeleteByID 按主键软删除。目标行不存在或已删除时返回 false。
func (r *Repository[T, P]) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return r.execAffecting(ctx, "delete", r.softDelete(id, r.now()))
}

func (r *Repository[T, P]) softDelete(id int64, at time.Time) sq.UpdateBuilder {
	return sq.Update(r.table()).
		Set(query.QuoteIdent("deletedAt"), at).
		Where(sq.Expr(r.column("id")+" = ?", id)).
		Where(r.notDeleted())
}

// DeleteWhere 软删除所有满足条件的行，返回受影响行数
func (r *Repository[T, P]) DeleteWhere(ctx context.Context, w query.Where) (int64, error) {
	b := sq.Update(r.table()).
		Set(query.QuoteIdent("deletedAt"), r.now()).
		Where(w).
		Where(r.notDeleted())
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return 0, r.fail("delete", err)
	}
	res, err := r.exec.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, r.fail("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.fail("delete", err)
	}
	return n, nil
}

func (r *Repository[T, P]) execAffecting(ctx context.Context, op string, b sq.UpdateBuilder) (bool, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return false, r.fail(op, err)
	}
	res, err := r.exec.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, r.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.fail(op, err)
	}
	return n > 0, nil
}

func (r *Repository[T, P]) selectRows(ctx context.Context, op string, b sq.SelectBuilder) ([]*T, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, r.fail(op, err)
	}
	rows, err := r.exec.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, r.fail(op, err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows, r.model.Schema.Fields)
	if err != nil {
		return nil, r.fail(op, err)
	}
	items := make([]*T, 0, len(recs))
	for _, rec := range recs {
		items = append(items, r.model.Hydrate(rec))
	}
	return items, nil
}

// fail 把存储层错误统一包装为 Internal 并计数。上下文取消原样返回。
func (r *Repository[T, P]) fail(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	aegobserve.RepositoryErrors.WithLabelValues(r.model.Schema.Table, op).Inc()
	return port.Internal(fmt.Errorf("%s %s 失败: %w", op, r.model.Schema.Table, err))
}

// ResolvePagination 校验分页参数并补默认值
func ResolvePagination(page, limit *int) (int, int, error) {
	p, l := DefaultPage, DefaultLimit
	if page != nil {
		if *page < 1 {
			return 0, 0, port.InvalidPagination("Page must be greater than or equal to 1")
		}
		p = *page
	}
	if limit != nil {
		if *limit < 1 || *limit > MaxLimit {
			return 0, 0, port.InvalidPagination("Limit must be between 1 and %d", MaxLimit)
		}
		l = *limit
	}
	return p, l, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
