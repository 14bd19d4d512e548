// file: internal/query/condition.go
package query

import (
	"fmt"
	"strings"

	"ShopAegis/internal/core/port"
)

// Where 是编译后的参数化 WHERE 片段。
// Statement 中 '?' 占位符的数量与 Params 的长度一致，且顺序一致。
type Where struct {
	Statement string
	Params    []any

	node Node
}

// MatchAll 匹配所有行，调用方可以无条件地拼接 WHERE
func MatchAll() Where { return Where{Statement: "1=1", Params: []any{}} }

// References 判断原始过滤树是否显式引用了 field
func (w Where) References(field string) bool {
	return w.node != nil && w.node.References(field)
}

// ToSql 实现 squirrel.Sqlizer，可以直接传给查询构造器
func (w Where) ToSql() (string, []any, error) {
	if w.Statement == "" {
		return "1=1", nil, nil
	}
	return w.Statement, w.Params, nil
}

// ColumnResolver 把逻辑字段名解析为物理列
type ColumnResolver func(field string) (string, error)

// Compile 把语法树翻译为 SQL。nil 节点编译为 1=1。
func Compile(n Node, resolve ColumnResolver) (Where, error) {
	if n == nil {
		return MatchAll(), nil
	}
	var sb strings.Builder
	params := make([]any, 0, 4)
	if err := writeNode(&sb, &params, n, resolve); err != nil {
		return Where{}, err
	}
	return Where{Statement: sb.String(), Params: params, node: n}, nil
}

// ConditionFrom 一步完成解析与编译，字段经由 schema 的白名单与字段映射
func ConditionFrom(in *FilterInput, s *Schema) (Where, error) {
	node, err := ParseFilter(in, s.Filterable)
	if err != nil {
		return Where{}, err
	}
	return Compile(node, s.Fields.Column)
}

func writeNode(sb *strings.Builder, params *[]any, n Node, resolve ColumnResolver) error {
	switch node := n.(type) {
	case Group:
		sb.WriteByte('(')
		for i, child := range node.Children {
			if i > 0 {
				sb.WriteString(" " + string(node.Op) + " ")
			}
			if err := writeNode(sb, params, child, resolve); err != nil {
				return err
			}
		}
		sb.WriteByte(')')
		return nil
	case Leaf:
		return writeLeaf(sb, params, node, resolve)
	default:
		return fmt.Errorf("query: 未知的节点类型 %T", n)
	}
}

var comparisonSQL = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

func writeLeaf(sb *strings.Builder, params *[]any, l Leaf, resolve ColumnResolver) error {
	col, err := resolve(l.Field)
	if err != nil {
		return port.InvalidFilter("Field '%s' cannot be used in filters", l.Field)
	}
	sb.WriteString(col)

	switch l.Operator {
	case OpIn:
		values, _ := l.Value.([]any)
		sb.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('?')
			*params = append(*params, v)
		}
		sb.WriteByte(')')
	case OpIsNull:
		if isNull, _ := l.Value.(bool); isNull {
			sb.WriteString(" IS NULL")
		} else {
			sb.WriteString(" IS NOT NULL")
		}
	case OpLike:
		sb.WriteString(" LIKE ?")
		*params = append(*params, l.Value)
	case OpContains:
		s, _ := l.Value.(string)
		sb.WriteString(` LIKE ? ESCAPE '\'`)
		*params = append(*params, "%"+escapeLike(s)+"%")
	default:
		sqlOp, ok := comparisonSQL[l.Operator]
		if !ok {
			return port.InvalidFilter("Unsupported operator '%s' on field '%s'", l.Operator, l.Field)
		}
		sb.WriteString(" " + sqlOp + " ?")
		*params = append(*params, l.Value)
	}
	return nil
}

// escapeLike 转义 LIKE 的通配符，与 ESCAPE '\' 配合使用
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
