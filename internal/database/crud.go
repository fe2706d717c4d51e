package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Select builds a SELECT from the options and runs it. The order defaults to "id DESC".
func (c *Client) Select(ctx context.Context, table string, opts ...SelectOption) (*Result, error) {
	return c.Query(ctx, c.builder.Select(table, opts...))
}

// Insert escapes every value of data, inserts one row and returns the
// session's generated id. ok is false, with no error, when data is not a
// mapping (Values, []Field or a string-keyed map).
func (c *Client) Insert(ctx context.Context, table string, data any) (id int64, ok bool, err error) {
	q, ok := c.builder.Insert(table, data)
	if !ok {
		return 0, false, nil
	}

	res, err := c.Query(ctx, q)
	if err != nil {
		return 0, true, err
	}
	if res == nil || res.exec == nil {
		return 0, true, nil
	}

	id, err = c.dialect.LastInsertID(ctx, c.conn, res.exec)
	if err != nil {
		return 0, true, c.fail(KindQuery, "", err)
	}
	return id, true, nil
}

// Update escapes every value of data and runs UPDATE ... WHERE where.
// ok is false, with no error, when data is not a mapping.
func (c *Client) Update(ctx context.Context, table string, data any, where string) (*Result, bool, error) {
	q, ok := c.builder.Update(table, data, where)
	if !ok {
		return nil, false, nil
	}

	res, err := c.Query(ctx, q)
	return res, true, err
}

// Delete runs DELETE FROM table WHERE where.
func (c *Client) Delete(ctx context.Context, table, where string) (*Result, error) {
	return c.Query(ctx, c.builder.Delete(table, where))
}

// Get drains the remaining rows of the last result in cursor order.
// It returns nil when no rows remain; calling it again without a new query
// returns nil because the cursor does not rewind.
func (c *Client) Get(shape Shape) ([]Row, error) {
	res := c.lastResult
	if res == nil || !res.HasRows() {
		return nil, c.fail(KindQuery, "", ErrNoResultSet)
	}

	var rows []Row
	for {
		row, err := res.next(shape)
		if err != nil {
			return nil, c.fail(KindQuery, "", err)
		}
		if row == nil {
			break
		}
		rows = append(rows, *row)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

// GetFirst reads one row of the last result and leaves the rest unread.
// It returns nil when no rows remain.
func (c *Client) GetFirst(shape Shape) (*Row, error) {
	res := c.lastResult
	if res == nil || !res.HasRows() {
		return nil, c.fail(KindQuery, "", ErrNoResultSet)
	}

	row, err := res.next(shape)
	if err != nil {
		return nil, c.fail(KindQuery, "", err)
	}
	return row, nil
}

// GetInto drains the remaining rows of the last result into dest, a pointer
// to a slice of structs whose fields carry `db` tags.
func (c *Client) GetInto(dest any) error {
	res := c.lastResult
	if res == nil || !res.HasRows() {
		return c.fail(KindQuery, "", ErrNoResultSet)
	}

	if err := sqlx.StructScan(res.rows, dest); err != nil {
		return c.fail(KindQuery, "", err)
	}
	return nil
}

// FetchAll runs sqlText and returns every row as ShapeObject.
func (c *Client) FetchAll(ctx context.Context, sqlText string) ([]Row, error) {
	if _, err := c.Query(ctx, sqlText); err != nil {
		return nil, err
	}
	return c.Get(ShapeObject)
}

// FetchRow runs sqlText and returns its first row as ShapeObject.
func (c *Client) FetchRow(ctx context.Context, sqlText string) (*Row, error) {
	if _, err := c.Query(ctx, sqlText); err != nil {
		return nil, err
	}
	return c.GetFirst(ShapeObject)
}
