package database

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Shape selects how a fetched row presents itself.
type Shape int

const (
	// ShapeObject rows serialise as field-named objects.
	ShapeObject Shape = iota
	// ShapeArray rows serialise as positional arrays.
	ShapeArray
)

// ParseShape maps "object" and "array" to a Shape. Anything else is ShapeObject.
func ParseShape(s string) Shape {
	if strings.EqualFold(strings.TrimSpace(s), "array") {
		return ShapeArray
	}
	return ShapeObject
}

func (s Shape) String() string {
	if s == ShapeArray {
		return "array"
	}
	return "object"
}

// Row is one materialised result row. Both shapes support named and positional access.
type Row struct {
	columns []string
	values  []any
	shape   Shape
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns []string, values []any, shape Shape) Row {
	return Row{columns: columns, values: values, shape: shape}
}

func (r Row) Columns() []string { return r.columns }
func (r Row) Values() []any     { return r.values }
func (r Row) Shape() Shape      { return r.shape }
func (r Row) Len() int          { return len(r.values) }

// Field returns the value of the named column. With duplicate names the last one wins.
func (r Row) Field(name string) (any, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Index returns the i-th value, or nil when out of range.
func (r Row) Index(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Map copies the row into a column-keyed map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, col := range r.columns {
		m[col] = r.values[i]
	}
	return m
}

// MarshalJSON writes an object in column order for ShapeObject and an array for ShapeArray.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.shape == ShapeArray {
		if r.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.values)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for i, col := range r.columns {
		if later, _ := r.lastIndex(col); later != i {
			continue
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Row) lastIndex(name string) (int, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == name {
			return i, true
		}
	}
	return -1, false
}

// Result is the handle of one executed statement: a pending row set for
// SELECT-family statements, an exec outcome otherwise.
type Result struct {
	sql     string
	rows    *sqlx.Rows
	columns []string
	exec    sql.Result
}

// SQL returns the statement text that produced the result.
func (r *Result) SQL() string { return r.sql }

// HasRows reports whether the result is a row set that fetches can read.
func (r *Result) HasRows() bool { return r.rows != nil }

// Columns lists the row set's columns; nil for exec results.
func (r *Result) Columns() []string { return r.columns }

// RowsAffected reports the rows touched by an exec statement; 0 for row sets.
func (r *Result) RowsAffected() (int64, error) {
	if r.exec == nil {
		return 0, nil
	}
	return r.exec.RowsAffected()
}

// Close discards unread rows.
func (r *Result) Close() error {
	if r.rows == nil {
		return nil
	}
	return r.rows.Close()
}

// next reads one row, returning nil once the cursor is exhausted.
func (r *Result) next(shape Shape) (*Row, error) {
	if r.rows == nil {
		return nil, ErrNoResultSet
	}
	if !r.rows.Next() {
		return nil, r.rows.Err()
	}

	values, err := r.rows.SliceScan()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}

	return &Row{columns: r.columns, values: values, shape: shape}, nil
}
