package database

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Expr is a pre-built SQL expression (NOW(), col + 1, ...). Escape passes it through verbatim.
type Expr string

// Field is one column/value pair.
type Field struct {
	Column string
	Value  any
}

// Values is an ordered column/value mapping. Use it when column order in the
// generated statement matters.
type Values []Field

// Builder renders statements as SQL text. It performs no I/O.
type Builder struct {
	Dialect Dialect
}

// Escape renders v as an SQL literal.
//
// Strings are dialect-escaped and single-quoted, booleans become 0/1, floats
// use fixed notation with six decimals, nil becomes null. Integers and Expr
// values are interpolated unchanged: anything that reaches this path without
// type coercion is not escaped.
func (b Builder) Escape(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Expr:
		return string(x)
	case string:
		return b.quote(x)
	case []byte:
		return b.quote(string(x))
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 6, 32)
	case time.Time:
		return b.quote(x.Format("2006-01-02 15:04:05"))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return b.Escape(rv.Elem().Interface())
	case reflect.String:
		return b.quote(rv.String())
	case reflect.Bool:
		return b.Escape(rv.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', 6, 64)
	}
	return fmt.Sprint(v)
}

func (b Builder) quote(s string) string {
	d := b.Dialect
	if d == nil {
		d = MySQL
	}
	return "'" + d.EscapeString(s) + "'"
}

type selectQuery struct {
	orderBy string
	where   string
	columns string
	limit   string
	groupBy string
}

// SelectOption adjusts one clause of a Select.
type SelectOption func(*selectQuery)

// OrderBy replaces the default "id DESC". An empty string drops the clause.
func OrderBy(expr string) SelectOption {
	return func(q *selectQuery) { q.orderBy = expr }
}

// Where sets the raw WHERE condition.
func Where(cond string) SelectOption {
	return func(q *selectQuery) { q.where = cond }
}

// Columns sets the select list; empty means "*".
func Columns(cols string) SelectOption {
	return func(q *selectQuery) { q.columns = cols }
}

// Limit sets the raw LIMIT argument, e.g. "10" or "20, 10".
func Limit(n string) SelectOption {
	return func(q *selectQuery) { q.limit = n }
}

// GroupBy sets the raw GROUP BY list.
func GroupBy(expr string) SelectOption {
	return func(q *selectQuery) { q.groupBy = expr }
}

// Select builds SELECT {columns} FROM {table} [WHERE] [ORDER BY] [GROUP BY] [LIMIT].
// Clause order follows the legacy helper; callers combining ORDER BY with
// GROUP BY get the statement exactly as requested.
func (b Builder) Select(table string, opts ...SelectOption) string {
	q := selectQuery{orderBy: "id DESC", columns: "*"}
	for _, opt := range opts {
		opt(&q)
	}
	if q.columns == "" {
		q.columns = "*"
	}

	parts := []string{"SELECT", q.columns, "FROM", table}
	if q.where != "" {
		parts = append(parts, "WHERE", q.where)
	}
	if q.orderBy != "" {
		parts = append(parts, "ORDER BY", q.orderBy)
	}
	if q.groupBy != "" {
		parts = append(parts, "GROUP BY", q.groupBy)
	}
	if q.limit != "" {
		parts = append(parts, "LIMIT", q.limit)
	}
	return strings.Join(parts, " ")
}

// Insert builds INSERT INTO {table} (cols) VALUES (vals). ok is false when data is not a mapping.
func (b Builder) Insert(table string, data any) (string, bool) {
	fields, ok := toFields(data)
	if !ok {
		return "", false
	}

	cols := make([]string, len(fields))
	vals := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
		vals[i] = b.Escape(f.Value)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ","), strings.Join(vals, ",")), true
}

// Update builds UPDATE {table} SET col = val,... WHERE {where}. ok is false when data is not a mapping.
func (b Builder) Update(table string, data any, where string) (string, bool) {
	fields, ok := toFields(data)
	if !ok {
		return "", false
	}

	sets := make([]string, len(fields))
	for i, f := range fields {
		sets[i] = f.Column + " = " + b.Escape(f.Value)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ","), where), true
}

// Delete builds DELETE FROM {table} WHERE {where}.
func (b Builder) Delete(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", table, where)
}

// toFields accepts Values, []Field, or any map keyed by a string kind.
// Map columns are ordered by name.
func toFields(data any) ([]Field, bool) {
	switch d := data.(type) {
	case nil:
		return nil, false
	case Values:
		return d, true
	case []Field:
		return d, true
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	fields := make([]Field, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		fields = append(fields, Field{Column: iter.Key().String(), Value: iter.Value().Interface()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Column < fields[j].Column })
	return fields, true
}
