// file: internal/query/condition_test.go
package query

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ShopAegis/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return MustSchema("Product",
		[]string{"id", "name", "price", "categoryId", "createdAt", "deletedAt", "secret"},
		[]string{"id", "name", "price", "categoryId", "deletedAt"},
		[]string{"name", "price", "createdAt"},
	)
}

// decodeFilter 模拟 HTTP 层: JSON 数字解码为 float64
func decodeFilter(t *testing.T, raw string) *FilterInput {
	t.Helper()
	var in FilterInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return &in
}

func TestConditionFrom_NilMatchesAll(t *testing.T) {
	w, err := ConditionFrom(nil, testSchema())
	require.NoError(t, err)
	assert.Equal(t, "1=1", w.Statement)
	assert.Empty(t, w.Params)
	assert.False(t, w.References("deletedAt"))
}

func TestConditionFrom_Leaf(t *testing.T) {
	w, err := ConditionFrom(decodeFilter(t, `{"field":"price","operator":"gte","value":10}`), testSchema())
	require.NoError(t, err)
	assert.Equal(t, `"Product"."price" >= ?`, w.Statement)
	assert.Equal(t, []any{int64(10)}, w.Params)
}

func TestConditionFrom_AllOperators(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		stmt   string
		params []any
	}{
		{"eq", `{"field":"name","operator":"eq","value":"tea"}`, `"Product"."name" = ?`, []any{"tea"}},
		{"ne", `{"field":"name","operator":"NE","value":"tea"}`, `"Product"."name" <> ?`, []any{"tea"}},
		{"gt", `{"field":"price","operator":"gt","value":1.5}`, `"Product"."price" > ?`, []any{1.5}},
		{"lt", `{"field":"price","operator":"lt","value":3}`, `"Product"."price" < ?`, []any{int64(3)}},
		{"lte", `{"field":"price","operator":"lte","value":3}`, `"Product"."price" <= ?`, []any{int64(3)}},
		{"like", `{"field":"name","operator":"like","value":"te%"}`, `"Product"."name" LIKE ?`, []any{"te%"}},
		{"contains", `{"field":"name","operator":"contains","value":"50%_off"}`, `"Product"."name" LIKE ? ESCAPE '\'`, []any{`%50\%\_off%`}},
		{"in", `{"field":"id","operator":"in","value":[1,2,3]}`, `"Product"."id" IN (?, ?, ?)`, []any{int64(1), int64(2), int64(3)}},
		{"isNull", `{"field":"categoryId","operator":"isNull"}`, `"Product"."categoryId" IS NULL`, []any{}},
		{"isNotNull", `{"field":"categoryId","operator":"isNull","value":false}`, `"Product"."categoryId" IS NOT NULL`, []any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := ConditionFrom(decodeFilter(t, tc.raw), testSchema())
			require.NoError(t, err)
			assert.Equal(t, tc.stmt, w.Statement)
			assert.Equal(t, tc.params, w.Params)
		})
	}
}

func TestConditionFrom_NestedPlaceholdersMatchParams(t *testing.T) {
	raw := `{"and":[
		{"field":"name","operator":"contains","value":"tea"},
		{"or":[
			{"field":"price","operator":"lt","value":5},
			{"field":"id","operator":"in","value":[7,8]},
			{"and":[{"field":"categoryId","operator":"isNull"},{"field":"price","operator":"eq","value":99.5}]}
		]}
	]}`
	w, err := ConditionFrom(decodeFilter(t, raw), testSchema())
	require.NoError(t, err)

	want := `("Product"."name" LIKE ? ESCAPE '\' AND ("Product"."price" < ? OR "Product"."id" IN (?, ?) OR ("Product"."categoryId" IS NULL AND "Product"."price" = ?)))`
	assert.Equal(t, want, w.Statement)
	assert.Equal(t, strings.Count(w.Statement, "?"), len(w.Params))
	assert.Equal(t, []any{"%tea%", int64(5), int64(7), int64(8), 99.5}, w.Params)
}

func TestConditionFrom_UnknownFieldAtAnyDepth(t *testing.T) {
	raws := []string{
		`{"field":"secret","operator":"eq","value":1}`,
		`{"and":[{"field":"name","operator":"eq","value":"x"},{"field":"secret","operator":"eq","value":1}]}`,
		`{"or":[{"and":[{"or":[{"field":"createdAt","operator":"gt","value":1}]}]}]}`,
		`{"field":"nope","operator":"eq","value":1}`,
	}
	for _, raw := range raws {
		_, err := ConditionFrom(decodeFilter(t, raw), testSchema())
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, port.ErrInvalidFilter), raw)
	}
}

func TestConditionFrom_InvalidShapes(t *testing.T) {
	raws := map[string]string{
		"unknown operator":    `{"field":"name","operator":"between","value":1}`,
		"in with scalar":      `{"field":"id","operator":"in","value":3}`,
		"in with empty list":  `{"field":"id","operator":"in","value":[]}`,
		"in with nested list": `{"field":"id","operator":"in","value":[[1]]}`,
		"eq with list":        `{"field":"id","operator":"eq","value":[1]}`,
		"eq with null":        `{"field":"id","operator":"eq"}`,
		"contains number":     `{"field":"name","operator":"contains","value":3}`,
		"isNull with string":  `{"field":"categoryId","operator":"isNull","value":"yes"}`,
		"empty and":           `{"and":[]}`,
		"leaf and group":      `{"field":"id","operator":"eq","value":1,"or":[{"field":"id","operator":"eq","value":2}]}`,
		"empty node":          `{}`,
		"missing field":       `{"operator":"eq","value":1}`,
	}
	for name, raw := range raws {
		t.Run(name, func(t *testing.T) {
			_, err := ConditionFrom(decodeFilter(t, raw), testSchema())
			require.Error(t, err)
			assert.True(t, errors.Is(err, port.ErrInvalidFilter))
		})
	}
}

func TestConditionFrom_TooDeep(t *testing.T) {
	in := &FilterInput{Field: "id", Operator: "eq", Value: 1}
	for i := 0; i < maxFilterDepth+1; i++ {
		in = &FilterInput{And: []FilterInput{*in}}
	}
	_, err := ConditionFrom(in, testSchema())
	assert.True(t, errors.Is(err, port.ErrInvalidFilter))
}

func TestWhere_References(t *testing.T) {
	w, err := ConditionFrom(decodeFilter(t, `{"or":[{"field":"name","operator":"eq","value":"a"},{"field":"deletedAt","operator":"isNull","value":false}]}`), testSchema())
	require.NoError(t, err)
	assert.True(t, w.References("deletedAt"))
	assert.False(t, w.References("price"))
}

func TestWhere_ToSql(t *testing.T) {
	stmt, args, err := Where{}.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "1=1", stmt)
	assert.Empty(t, args)
}

func TestParseFilter_GoValues(t *testing.T) {
	node, err := ParseFilter(&FilterInput{Field: "id", Operator: "in", Value: []int64{4, 5}}, testSchema().Filterable)
	require.NoError(t, err)
	leaf, ok := node.(Leaf)
	require.True(t, ok)
	assert.Equal(t, []any{int64(4), int64(5)}, leaf.Value)
}
