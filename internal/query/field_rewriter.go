// Package query 把通用的过滤/排序输入翻译为参数化的 SQL 片段。
// file: internal/query/field_rewriter.go
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField 表示逻辑字段名不在实体的字段映射中
var ErrUnknownField = errors.New("unknown field")

// FieldRewriter 把逻辑字段名映射为物理的查询表达式。
// 构造完成后只读，可以在所有请求之间共享。
type FieldRewriter struct {
	table   string
	order   []string
	selects map[string]string // 逻辑名 -> "T"."f" AS "T_f"
	columns map[string]string // 逻辑名 -> "T"."f"
	logical map[string]string // 别名 T_f -> 逻辑名
}

// NewFieldRewriter 为 table 的每个字段生成限定列名与别名
func NewFieldRewriter(table string, fields ...string) *FieldRewriter {
	r := &FieldRewriter{
		table:   table,
		order:   make([]string, 0, len(fields)),
		selects: make(map[string]string, len(fields)),
		columns: make(map[string]string, len(fields)),
		logical: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if _, dup := r.columns[f]; dup {
			continue
		}
		alias := table + "_" + f
		column := QuoteIdent(table) + "." + QuoteIdent(f)
		r.order = append(r.order, f)
		r.columns[f] = column
		r.selects[f] = column + " AS " + QuoteIdent(alias)
		r.logical[alias] = f
	}
	return r
}

// Table 返回物理表名
func (r *FieldRewriter) Table() string { return r.table }

// Fields 返回所有逻辑字段名 (声明顺序)
func (r *FieldRewriter) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All 返回完整的 SELECT 列表
func (r *FieldRewriter) All() []string {
	out := make([]string, 0, len(r.order))
	for _, f := range r.order {
		out = append(out, r.selects[f])
	}
	return out
}

// Get 返回单个字段的 SELECT 表达式
func (r *FieldRewriter) Get(name string) (string, error) {
	expr, ok := r.selects[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return expr, nil
}

// Column 返回可用于 WHERE / ORDER BY 的限定列名
func (r *FieldRewriter) Column(name string) (string, error) {
	col, ok := r.columns[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return col, nil
}

// Has 判断逻辑字段是否存在
func (r *FieldRewriter) Has(name string) bool {
	_, ok := r.columns[name]
	return ok
}

// Logical 把结果集中的列别名还原为逻辑字段名
func (r *FieldRewriter) Logical(alias string) (string, bool) {
	name, ok := r.logical[alias]
	return name, ok
}

// QuoteIdent 以 SQL 标准方式引用标识符
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
