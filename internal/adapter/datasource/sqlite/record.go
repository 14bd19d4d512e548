// Package sqlite file: internal/adapter/datasource/sqlite/record.go
package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"ShopAegis/internal/query"
)

// Record 是一行查询结果，键为逻辑字段名
type Record map[string]any

// 驱动可能把 DATETIME 以字符串返回，按顺序尝试这些格式
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (r Record) Int64(field string) int64 {
	switch v := r[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	default:
		return 0
	}
}

func (r Record) NullInt64(field string) *int64 {
	if r[field] == nil {
		return nil
	}
	v := r.Int64(field)
	return &v
}

func (r Record) Float64(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Time(field string) time.Time {
	switch v := r[field].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	case int64:
		return time.Unix(v, 0).UTC()
	}
	return time.Time{}
}

func (r Record) NullTime(field string) *time.Time {
	if r[field] == nil {
		return nil
	}
	t := r.Time(field)
	if t.IsZero() {
		return nil
	}
	return &t
}

// scanRecords 读取结果集，把列别名还原为逻辑字段名
func scanRecords(rows *sql.Rows, rw *query.FieldRewriter) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		if logical, ok := rw.Logical(c); ok {
			names[i] = logical
		} else {
			names[i] = c
		}
	}

	var out []Record
	for rows.Next() {
		scanDest := make([]any, len(columns))
		scanDestPtrs := make([]any, len(columns))
		for i := range scanDest {
			scanDestPtrs[i] = &scanDest[i]
		}
		if err := rows.Scan(scanDestPtrs...); err != nil {
			return nil, err
		}
		rec := make(Record, len(columns))
		for i, name := range names {
			if b, ok := scanDest[i].([]byte); ok {
				rec[name] = string(b)
			} else {
				rec[name] = scanDest[i]
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
