package handlers

import (
	"net/http"

	"github.com/dhima/dbhelper/internal/api/response"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleStoreError writes the response for err and reports whether it did.
func handleStoreError(c *gin.Context, logger logging.Logger, err error, operation string) bool {
	if err == nil {
		return false
	}

	status := response.DatabaseError(c, err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", response.GetRequestID(c)),
	}
	if status == http.StatusInternalServerError {
		logger.Error(operation+" failed", fields...)
	} else {
		logger.Warn(operation+" failed", fields...)
	}
	return true
}
