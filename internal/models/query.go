package models

import "github.com/dhima/dbhelper/internal/database"

// ListRowsQuery holds the optional SELECT parts of GET /api/v1/tables/:table.
// order_by is read separately because an empty value differs from an absent one.
type ListRowsQuery struct {
	Columns string `form:"columns" example:"id, name"`
	Where   string `form:"where" example:"active = 1"`
	GroupBy string `form:"group_by" example:"status"`
	Limit   string `form:"limit" example:"10"`
	Shape   string `form:"shape" binding:"omitempty,oneof=object array" example:"object"`
}

// MutationQuery carries the raw WHERE clause of update and delete calls.
type MutationQuery struct {
	Where string `form:"where" binding:"required" example:"id = 3"`
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	SQL   string `json:"sql" binding:"required" example:"SELECT COUNT(*) AS n FROM users"`
	Shape string `json:"shape" binding:"omitempty,oneof=object array" example:"array"`
}

// RowsResponse lists fetched rows in cursor order.
type RowsResponse struct {
	Columns []string       `json:"columns"`
	Rows    []database.Row `json:"rows"`
	Count   int            `json:"count"`
}

// InsertResponse carries the id generated by an insert.
type InsertResponse struct {
	ID int64 `json:"id" example:"42"`
}

// MutationResponse reports the rows touched by an update or delete.
type MutationResponse struct {
	RowsAffected int64 `json:"rows_affected" example:"1"`
}

// QueryResponse is the outcome of a raw statement: rows for SELECT-family
// statements, an affected-row count otherwise.
type QueryResponse struct {
	SQL          string         `json:"sql"`
	Columns      []string       `json:"columns,omitempty"`
	Rows         []database.Row `json:"rows"`
	RowsAffected *int64         `json:"rows_affected,omitempty"`
}
