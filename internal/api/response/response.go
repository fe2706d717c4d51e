// Package response writes the console's JSON envelopes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dhima/dbhelper/internal/database"
)

// requestIDKey matches the key the request ID middleware stores on the context.
const requestIDKey = "request_id"

// Envelope wraps a successful payload.
type Envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Failure is the body of every error response. Kind is set for failures
// routed by the database client.
type Failure struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ValidationError names a rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Data: data, Message: message})
}

func OK(c *gin.Context, data any) { Success(c, http.StatusOK, data, "") }

func Created(c *gin.Context, data any, message string) {
	Success(c, http.StatusCreated, data, message)
}

// DatabaseError writes the response for an error returned by the database
// client and reports the status it chose: 503 when the session could not be
// opened, 400 when the statement failed and 500 for anything else.
func DatabaseError(c *gin.Context, err error) int {
	kind, ok := database.KindOf(err)
	if !ok {
		InternalServerError(c, "internal server error")
		return http.StatusInternalServerError
	}

	status, msg := http.StatusBadRequest, "statement failed"
	if kind == database.KindConnection {
		status, msg = http.StatusServiceUnavailable, "database unavailable"
	}
	fail(c, status, Failure{Error: msg, Kind: kind.String(), Details: err.Error()})
	return status
}

func BadRequest(c *gin.Context, msg string, details any) {
	fail(c, http.StatusBadRequest, Failure{Error: msg, Details: details})
}

func ValidationErrors(c *gin.Context, fields []ValidationError) {
	BadRequest(c, "validation failed", fields)
}

func InternalServerError(c *gin.Context, msg string) {
	fail(c, http.StatusInternalServerError, Failure{Error: msg})
}

func fail(c *gin.Context, status int, f Failure) {
	f.TraceID = GetRequestID(c)
	c.JSON(status, f)
}

// GetRequestID returns the ID set by the request ID middleware, or a fresh
// UUID when the route runs without it.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return uuid.NewString()
}
