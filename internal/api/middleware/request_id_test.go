package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveWithHeader(t *testing.T, header string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/test", func(c *gin.Context) {
		id, exists := c.Get(RequestIDKey)
		if !exists {
			t.Fatal("expected request ID to exist in context")
		}
		seen = id.(string)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	router.ServeHTTP(w, req)
	return seen, w.Header().Get(RequestIDHeader)
}

func TestRequestID_WhenClientProvidesRequestID_ThenUsesProvidedID(t *testing.T) {
	// Act
	seen, echoed := serveWithHeader(t, "client-provided-request-id")

	// Assert
	assert.Equal(t, "client-provided-request-id", seen)
	assert.Equal(t, "client-provided-request-id", echoed)
}

func TestRequestID_WhenClientDoesNotProvideRequestID_ThenGeneratesNewID(t *testing.T) {
	// Act
	seen, echoed := serveWithHeader(t, "")

	// Assert
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, echoed)
}

func TestRequestID_WhenHeaderTooLong_ThenGeneratesNewID(t *testing.T) {
	// Arrange
	long := strings.Repeat("x", maxRequestIDLength+1)

	// Act
	seen, echoed := serveWithHeader(t, long)

	// Assert
	assert.NotEqual(t, long, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, echoed)
}

func TestRequestID_WhenMultipleRequests_ThenEachGetsDifferentID(t *testing.T) {
	first, _ := serveWithHeader(t, "")
	second, _ := serveWithHeader(t, "")

	assert.NotEqual(t, first, second)
}
