// file: internal/query/filter.go
package query

import (
	"encoding/json"
	"math"
	"strings"

	"ShopAegis/internal/core/port"
)

// maxFilterDepth 限制嵌套层数，防止恶意构造的超深过滤树
const maxFilterDepth = 32

// Operator 是叶子条件支持的比较操作符
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpLike     Operator = "like"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpIsNull   Operator = "isNull"
)

// 按小写名称查找，客户端大小写不敏感
var operatorsByName = map[string]Operator{
	"eq":       OpEq,
	"ne":       OpNe,
	"gt":       OpGt,
	"gte":      OpGte,
	"lt":       OpLt,
	"lte":      OpLte,
	"like":     OpLike,
	"contains": OpContains,
	"in":       OpIn,
	"isnull":   OpIsNull,
}

// Combinator 是组合节点的逻辑连接符
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// FilterInput 是外部客户端提交的原始过滤树，例如:
//
//	{"and":[{"field":"name","operator":"contains","value":"tea"},{"or":[...]}]}
//
// 每个节点只能是叶子条件、and、or 三者之一。
type FilterInput struct {
	Field    string        `json:"field,omitempty"`
	Operator string        `json:"operator,omitempty"`
	Value    any           `json:"value,omitempty"`
	And      []FilterInput `json:"and,omitempty"`
	Or       []FilterInput `json:"or,omitempty"`
}

// Node 是经过校验的过滤语法树节点 (Leaf 或 Group)
type Node interface {
	// References 判断子树中是否有叶子引用了 field
	References(field string) bool
	isNode()
}

// Leaf 是一个 field/operator/value 条件，Value 已规范化
type Leaf struct {
	Field    string
	Operator Operator
	Value    any
}

func (l Leaf) References(field string) bool { return l.Field == field }
func (Leaf) isNode()                         {}

// Group 用 AND/OR 连接至少一个子节点
type Group struct {
	Op       Combinator
	Children []Node
}

func (g Group) References(field string) bool {
	for _, c := range g.Children {
		if c.References(field) {
			return true
		}
	}
	return false
}
func (Group) isNode() {}

// ParseFilter 把不可信的输入校验并转换为语法树。nil 输入返回 nil 节点。
// 任何层级出现白名单之外的字段都会失败。
func ParseFilter(in *FilterInput, allowed AllowList) (Node, error) {
	if in == nil {
		return nil, nil
	}
	return parseNode(in, allowed, 1)
}

func parseNode(in *FilterInput, allowed AllowList, depth int) (Node, error) {
	if depth > maxFilterDepth {
		return nil, port.InvalidFilter("Filter is nested too deeply (max %d levels)", maxFilterDepth)
	}

	isLeaf := in.Field != "" || in.Operator != ""
	kinds := 0
	for _, present := range []bool{isLeaf, in.And != nil, in.Or != nil} {
		if present {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, port.InvalidFilter("Each filter node must be exactly one of a condition, 'and' or 'or'")
	}

	switch {
	case in.And != nil:
		return parseGroup(And, in.And, allowed, depth)
	case in.Or != nil:
		return parseGroup(Or, in.Or, allowed, depth)
	default:
		return parseLeaf(in, allowed)
	}
}

func parseGroup(op Combinator, children []FilterInput, allowed AllowList, depth int) (Node, error) {
	if len(children) == 0 {
		return nil, port.InvalidFilter("'%s' requires at least one condition", strings.ToLower(string(op)))
	}
	g := Group{Op: op, Children: make([]Node, 0, len(children))}
	for i := range children {
		child, err := parseNode(&children[i], allowed, depth+1)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

func parseLeaf(in *FilterInput, allowed AllowList) (Node, error) {
	if in.Field == "" {
		return nil, port.InvalidFilter("Filter condition is missing 'field'")
	}
	if !allowed.Contains(in.Field) {
		return nil, port.InvalidFilter("Field '%s' cannot be used in filters", in.Field)
	}
	op, ok := operatorsByName[strings.ToLower(in.Operator)]
	if !ok {
		return nil, port.InvalidFilter("Unsupported operator '%s' on field '%s'", in.Operator, in.Field)
	}

	leaf := Leaf{Field: in.Field, Operator: op}
	switch op {
	case OpIn:
		list, ok := normalizeList(in.Value)
		if !ok || len(list) == 0 {
			return nil, port.InvalidFilter("Operator 'in' on field '%s' requires a non-empty list of values", in.Field)
		}
		leaf.Value = list
	case OpIsNull:
		switch v := in.Value.(type) {
		case nil:
			leaf.Value = true
		case bool:
			leaf.Value = v
		default:
			return nil, port.InvalidFilter("Operator 'isNull' on field '%s' accepts only true or false", in.Field)
		}
	case OpLike, OpContains:
		s, ok := in.Value.(string)
		if !ok {
			return nil, port.InvalidFilter("Operator '%s' on field '%s' requires a string value", op, in.Field)
		}
		leaf.Value = s
	default:
		v, ok := normalizeScalar(in.Value)
		if !ok {
			return nil, port.InvalidFilter("Operator '%s' on field '%s' requires a single value", op, in.Field)
		}
		leaf.Value = v
	}
	return leaf, nil
}

// normalizeScalar 只接受字符串、布尔与数值；整数值的浮点数转为 int64
func normalizeScalar(v any) (any, bool) {
	switch x := v.(type) {
	case string, bool, int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float32:
		return normalizeFloat(float64(x)), true
	case float64:
		return normalizeFloat(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func normalizeList(v any) ([]any, bool) {
	var raw []any
	switch x := v.(type) {
	case []any:
		raw = x
	case []string:
		for _, s := range x {
			raw = append(raw, s)
		}
	case []int64:
		for _, i := range x {
			raw = append(raw, i)
		}
	case []int:
		for _, i := range x {
			raw = append(raw, i)
		}
	default:
		return nil, false
	}
	out := make([]any, 0, len(raw))
	for _, item := range raw {
		s, ok := normalizeScalar(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
