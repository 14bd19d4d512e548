// file: internal/service/common.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/port"
	"ShopAegis/internal/query"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// ListInput 是所有列表查询共用的输入
type ListInput struct {
	Page    *int               `json:"page"`
	Limit   *int               `json:"limit"`
	Where   *query.FilterInput `json:"where"`
	OrderBy []query.OrderInput `json:"orderBy"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息中使用 JSON 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput 校验输入结构体，把第一个失败字段转为 InvalidInput
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return port.InvalidInput("Field '%s' failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return port.InvalidInput("Invalid input")
}

// normalize 在公共操作的边界调用: 业务错误原样返回，其余错误记录日志后替换为 Internal
func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	n := port.Normalize(err)
	if errors.Is(n, port.ErrInternal) {
		slog.Error("服务操作失败", "op", op, "error", err)
	} else {
		slog.Debug("服务操作被拒绝", "op", op, "reason", n.Error())
	}
	return n
}

const softDeleteField = "deletedAt"

// listPage 并发读取一页数据、条件内总数与全表总数
func listPage[T any, P sqlite.Entity[T]](ctx context.Context, repo *sqlite.Repository[T, P], in ListInput) (*port.Page[T], error) {
	schema := repo.Schema()
	where, err := query.ConditionFrom(in.Where, schema)
	if err != nil {
		return nil, err
	}
	// 对调用方而言已删除与不存在等价，只有内部代码路径可以按 deletedAt 过滤
	if where.References(softDeleteField) {
		return nil, port.InvalidFilter("Field '%s' cannot be used in filters", softDeleteField)
	}
	order, err := query.OrderByFrom(in.OrderBy, schema)
	if err != nil {
		return nil, err
	}
	if _, _, err := sqlite.ResolvePagination(in.Page, in.Limit); err != nil {
		return nil, err
	}

	var page port.Page[T]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := repo.GetAll(gctx, sqlite.ListOptions{Page: in.Page, Limit: in.Limit, Where: where, OrderBy: order})
		page.Rows = rows
		return err
	})
	g.Go(func() error {
		n, err := repo.Count(gctx, where)
		page.TotalInCondition = n
		return err
	})
	g.Go(func() error {
		n, err := repo.Count(gctx, query.MatchAll())
		page.Total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &page, nil
}

// whereEq 构造 "字段 = 值" 的合取条件，键按字母序排列
func whereEq(s *query.Schema, fields map[string]any) (query.Where, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	in := query.FilterInput{And: make([]query.FilterInput, 0, len(keys))}
	for _, k := range keys {
		in.And = append(in.And, query.FilterInput{Field: k, Operator: string(query.OpEq), Value: fields[k]})
	}
	return query.ConditionFrom(&in, s)
}
