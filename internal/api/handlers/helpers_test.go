package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const usersSchema = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0,
	score REAL
)`

// newSQLiteSession opens an in-memory session holding a users table seeded with names.
func newSQLiteSession(t *testing.T, names ...string) (*Session, *database.Client) {
	t.Helper()
	ctx := context.Background()

	client, err := database.New(ctx, "", "", "", ":memory:",
		database.WithDialect(database.SQLite),
		database.WithErrorMode(database.ErrorModeReturn),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.Query(ctx, usersSchema)
	require.NoError(t, err)
	for _, name := range names {
		_, _, err := client.Insert(ctx, "users", database.Values{{Column: "name", Value: name}, {Column: "active", Value: true}})
		require.NoError(t, err)
	}
	return NewSession(client), client
}

func newRouter(session *Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logging.NewNoOpLogger()
	tables := NewTableHandler(logger, session)
	query := NewQueryHandler(logger, session)

	r := gin.New()
	r.GET("/health", NewHealthHandler(logger, session).Health)
	r.GET("/metrics", NewMetricsHandler(logger, session).Metrics)
	r.GET("/api/v1/tables/:table", tables.List)
	r.POST("/api/v1/tables/:table", tables.Create)
	r.PUT("/api/v1/tables/:table", tables.Update)
	r.DELETE("/api/v1/tables/:table", tables.Delete)
	r.POST("/api/v1/query", query.Run)
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the "data" member of the success envelope into dest.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

type errorBody struct {
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Details json.RawMessage `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
