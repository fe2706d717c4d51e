package handlers

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/dhima/dbhelper/internal/api/response"
	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	limitPattern     = regexp.MustCompile(`^\d+(\s*,\s*\d+)?$`)
)

// rowSchema accepts one flat row: scalar values keyed by plain column names.
const rowSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"minProperties": 1,
	"propertyNames": {"pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
	"additionalProperties": {"type": ["string", "number", "integer", "boolean", "null"]}
}`

var rowSchemaLoader = gojsonschema.NewStringLoader(rowSchema)

// TableHandler exposes Select, Insert, Update and Delete over one table.
type TableHandler struct {
	logger  logging.Logger
	session *Session
}

// NewTableHandler creates a new table handler.
func NewTableHandler(logger logging.Logger, session *Session) *TableHandler {
	return &TableHandler{
		logger:  logger.With(zap.String("handler", "table")),
		session: session,
	}
}

// List runs a SELECT against the table and drains every row.
// An absent order_by keeps the "id DESC" default; an empty one drops the clause.
func (h *TableHandler) List(c *gin.Context) {
	table, ok := h.table(c)
	if !ok {
		return
	}

	var query models.ListRowsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}
	if query.Limit != "" && !limitPattern.MatchString(query.Limit) {
		response.ValidationErrors(c, []response.ValidationError{
			{Field: "limit", Message: "must be a row count or offset,count"},
		})
		return
	}

	opts := []database.SelectOption{
		database.Columns(query.Columns),
		database.Where(query.Where),
		database.GroupBy(query.GroupBy),
		database.Limit(query.Limit),
	}
	if orderBy, present := c.GetQuery("order_by"); present {
		opts = append(opts, database.OrderBy(orderBy))
	}

	shape := database.ParseShape(query.Shape)
	ctx := c.Request.Context()

	var result models.RowsResponse
	err := h.session.With(func(s Store) error {
		res, err := s.Select(ctx, table, opts...)
		if err != nil {
			return err
		}
		if res != nil {
			result.Columns = res.Columns()
		}
		result.Rows, err = s.Get(shape)
		return err
	})
	if handleStoreError(c, h.logger, err, "select") {
		return
	}

	if result.Rows == nil {
		result.Rows = []database.Row{}
	}
	result.Count = len(result.Rows)
	response.OK(c, result)
}

// Create inserts the JSON body as one row and answers with the generated id.
func (h *TableHandler) Create(c *gin.Context) {
	table, ok := h.table(c)
	if !ok {
		return
	}
	row, ok := h.bindRow(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var id int64
	var mapped bool
	err := h.session.With(func(s Store) error {
		var err error
		id, mapped, err = s.Insert(ctx, table, row)
		return err
	})
	if handleStoreError(c, h.logger, err, "insert") {
		return
	}
	if !mapped {
		response.BadRequest(c, "body must be a JSON object", nil)
		return
	}

	h.logger.Info("row inserted",
		zap.String("table", table),
		zap.Int64("id", id),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.Created(c, models.InsertResponse{ID: id}, "row inserted")
}

// Update applies the JSON body to the rows matching the where parameter.
func (h *TableHandler) Update(c *gin.Context) {
	table, ok := h.table(c)
	if !ok {
		return
	}
	where, ok := h.where(c)
	if !ok {
		return
	}
	row, ok := h.bindRow(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var affected int64
	var mapped bool
	err := h.session.With(func(s Store) error {
		res, ok, err := s.Update(ctx, table, row, where)
		mapped = ok
		if err != nil || res == nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if handleStoreError(c, h.logger, err, "update") {
		return
	}
	if !mapped {
		response.BadRequest(c, "body must be a JSON object", nil)
		return
	}

	response.OK(c, models.MutationResponse{RowsAffected: affected})
}

// Delete removes the rows matching the where parameter.
func (h *TableHandler) Delete(c *gin.Context) {
	table, ok := h.table(c)
	if !ok {
		return
	}
	where, ok := h.where(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var affected int64
	err := h.session.With(func(s Store) error {
		res, err := s.Delete(ctx, table, where)
		if err != nil || res == nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if handleStoreError(c, h.logger, err, "delete") {
		return
	}

	h.logger.Info("rows deleted",
		zap.String("table", table),
		zap.Int64("rows_affected", affected),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.OK(c, models.MutationResponse{RowsAffected: affected})
}

func (h *TableHandler) table(c *gin.Context) (string, bool) {
	table := c.Param("table")
	if !tableNamePattern.MatchString(table) {
		response.ValidationErrors(c, []response.ValidationError{
			{Field: "table", Message: "must be an identifier, optionally schema-qualified"},
		})
		return "", false
	}
	return table, true
}

func (h *TableHandler) where(c *gin.Context) (string, bool) {
	var query models.MutationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationErrors(c, []response.ValidationError{
			{Field: "where", Message: "is required"},
		})
		return "", false
	}
	return query.Where, true
}

// bindRow validates the body against rowSchema and decodes it, keeping
// integers as int64 so they render without an exponent.
func (h *TableHandler) bindRow(c *gin.Context) (map[string]any, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return nil, false
	}

	result, err := gojsonschema.Validate(rowSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return nil, false
	}
	if !result.Valid() {
		details := make([]response.ValidationError, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, response.ValidationError{
				Field:   desc.Field(),
				Message: desc.Description(),
			})
		}
		h.logger.Warn("row schema validation failed",
			zap.Int("errors", len(details)),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.ValidationErrors(c, details)
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return nil, false
	}

	for k, v := range row {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			row[k] = i
		} else if f, err := n.Float64(); err == nil {
			row[k] = f
		}
	}
	return row, true
}
