// file: internal/query/schema.go
package query

import "fmt"

// AllowList 是允许用于过滤或排序的逻辑字段集合
type AllowList map[string]struct{}

func NewAllowList(fields ...string) AllowList {
	al := make(AllowList, len(fields))
	for _, f := range fields {
		al[f] = struct{}{}
	}
	return al
}

func (al AllowList) Contains(field string) bool {
	_, ok := al[field]
	return ok
}

// Schema 汇总一个实体的表名、字段映射与过滤/排序白名单
type Schema struct {
	Table      string
	Fields     *FieldRewriter
	Filterable AllowList
	Sortable   AllowList
}

// MustSchema 在进程启动时构造实体元数据。
// 白名单中出现字段映射里没有的字段属于编程错误，直接 panic。
func MustSchema(table string, fields, filterable, sortable []string) *Schema {
	rw := NewFieldRewriter(table, fields...)
	for _, f := range append(append([]string{}, filterable...), sortable...) {
		if !rw.Has(f) {
			panic(fmt.Sprintf("query: 表 %s 的白名单字段 %q 不在字段映射中", table, f))
		}
	}
	return &Schema{
		Table:      table,
		Fields:     rw,
		Filterable: NewAllowList(filterable...),
		Sortable:   NewAllowList(sortable...),
	}
}
