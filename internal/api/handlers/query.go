package handlers

import (
	"github.com/dhima/dbhelper/internal/api/response"
	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QueryHandler runs caller-supplied statements verbatim.
type QueryHandler struct {
	logger  logging.Logger
	session *Session
}

// NewQueryHandler creates a new raw query handler.
func NewQueryHandler(logger logging.Logger, session *Session) *QueryHandler {
	return &QueryHandler{
		logger:  logger.With(zap.String("handler", "query")),
		session: session,
	}
}

// Run executes the statement and returns its rows, or the affected-row
// count for statements without a result set.
func (h *QueryHandler) Run(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid query request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	shape := database.ParseShape(req.Shape)
	ctx := c.Request.Context()

	result := models.QueryResponse{SQL: req.SQL}
	err := h.session.With(func(s Store) error {
		res, err := s.Query(ctx, req.SQL)
		if err != nil || res == nil {
			return err
		}
		if !res.HasRows() {
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			result.RowsAffected = &n
			return nil
		}
		result.Columns = res.Columns()
		result.Rows, err = s.Get(shape)
		if result.Rows == nil {
			result.Rows = []database.Row{}
		}
		return err
	})
	if handleStoreError(c, h.logger, err, "query") {
		return
	}

	response.OK(c, result)
}
