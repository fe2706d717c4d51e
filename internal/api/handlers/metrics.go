package handlers

import (
	"github.com/dhima/dbhelper/internal/api/response"
	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/gin-gonic/gin"
)

// MetricsHandler reports the session's statement counters.
type MetricsHandler struct {
	logger  logging.Logger
	session *Session
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(logger logging.Logger, session *Session) *MetricsHandler {
	return &MetricsHandler{logger: logger, session: session}
}

// Metrics returns the statements run and failures routed so far.
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var stats database.Stats
	_ = h.session.With(func(s Store) error {
		stats = s.Stats()
		return nil
	})

	response.OK(c, stats)
}
