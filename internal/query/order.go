// file: internal/query/order.go
package query

import (
	"strings"

	"ShopAegis/internal/core/port"
)

// Direction 是排序方向
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderInput 是客户端提交的单个排序项，Direction 缺省为 ASC
type OrderInput struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

// OrderTerm 是已解析为物理列的排序项
type OrderTerm struct {
	Expression string
	Direction  Direction
}

func (t OrderTerm) String() string { return t.Expression + " " + string(t.Direction) }

// OrderByFrom 校验并翻译排序列表。
// 字段必须同时在可排序白名单与字段映射中，输出中只出现映射后的列名。
func OrderByFrom(in []OrderInput, s *Schema) ([]OrderTerm, error) {
	terms := make([]OrderTerm, 0, len(in))
	for _, o := range in {
		if !s.Sortable.Contains(o.Field) {
			return nil, port.InvalidFilter("Field '%s' cannot be used for sorting", o.Field)
		}
		col, err := s.Fields.Column(o.Field)
		if err != nil {
			return nil, port.InvalidFilter("Field '%s' cannot be used for sorting", o.Field)
		}
		dir := Asc
		switch strings.ToUpper(strings.TrimSpace(o.Direction)) {
		case "", "ASC":
		case "DESC":
			dir = Desc
		default:
			return nil, port.InvalidFilter("Invalid sort direction '%s' on field '%s'", o.Direction, o.Field)
		}
		terms = append(terms, OrderTerm{Expression: col, Direction: dir})
	}
	return terms, nil
}

// OrderByClauses 转为查询构造器需要的字符串形式
func OrderByClauses(terms []OrderTerm) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.String())
	}
	return out
}
