package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dhima/dbhelper/internal/api/response"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger  logging.Logger
	session *Session
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(logger logging.Logger, session *Session) *HealthHandler {
	return &HealthHandler{logger: logger, session: session}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Service  string `json:"service" example:"dbhelper"`
	Version  string `json:"version" example:"1.0.0"`
	Database string `json:"database" example:"up"`
}

// Health pings the database session. A failed ping answers 503 with a
// degraded status.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	err := h.session.With(func(s Store) error {
		return s.Ping(ctx)
	})
	if err != nil {
		h.logger.Warn("database ping failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.Success(c, http.StatusServiceUnavailable, HealthResponse{
			Status:   "degraded",
			Service:  "dbhelper",
			Version:  "1.0.0",
			Database: "down",
		}, err.Error())
		return
	}

	response.OK(c, HealthResponse{
		Status:   "ok",
		Service:  "dbhelper",
		Version:  "1.0.0",
		Database: "up",
	})
}
