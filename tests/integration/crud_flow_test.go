//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhima/dbhelper/internal/api"
	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/pkg/config"
	"github.com/stretchr/testify/require"
)

// openClient connects to the database named by DB_DRIVER/DB_HOST/... when
// DB_DRIVER is set, and to a fresh sqlite file otherwise.
func openClient(t *testing.T) *database.Client {
	t.Helper()
	cfg := config.FromEnv()
	if os.Getenv("DB_DRIVER") == "" {
		cfg.DBDriver = "sqlite"
		cfg.DBName = filepath.Join(t.TempDir(), "flow.db")
		require.NoError(t, os.WriteFile(cfg.DBName, nil, 0o600))
	}

	dialect, err := database.DialectFor(cfg.DBDriver)
	require.NoError(t, err)

	client, err := database.New(context.Background(), cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName,
		database.WithDialect(dialect),
		database.WithErrorMode(database.ErrorModeReturn),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.Query(context.Background(), "DROP TABLE IF EXISTS flow_items")
	require.NoError(t, err)
	_, err = client.Query(context.Background(), createTable(dialect))
	require.NoError(t, err)
	return client
}

func createTable(d database.Dialect) string {
	switch d.Name() {
	case "postgres":
		return "CREATE TABLE flow_items (id SERIAL PRIMARY KEY, label TEXT NOT NULL, qty INTEGER)"
	case "mysql":
		return "CREATE TABLE flow_items (id INT AUTO_INCREMENT PRIMARY KEY, label VARCHAR(64) NOT NULL, qty INT)"
	default:
		return "CREATE TABLE flow_items (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT NOT NULL, qty INTEGER)"
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCRUDFlow_InsertListUpdateDelete(t *testing.T) {
	client := openClient(t)
	cfg := config.App{APIPort: "0", Environment: "test", RawQuery: true, CORSOrigins: []string{"*"}}
	h := api.NewServer(cfg, logging.NewNoOpLogger(), client).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/tables/flow_items", `{"label":"it's here","qty":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, int64(1), created.Data.ID)

	w = do(t, h, http.MethodPost, "/api/v1/tables/flow_items", `{"label":"second","qty":null}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/v1/tables/flow_items?columns=label", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"columns":["label"],"rows":[{"label":"second"},{"label":"it's here"}],"count":2}}`, w.Body.String())

	w = do(t, h, http.MethodPut, "/api/v1/tables/flow_items?where=qty+IS+NULL", `{"qty":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"rows_affected":1}}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/api/v1/tables/flow_items?where=qty+%3D+3", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/query", `{"sql":"SELECT label FROM flow_items WHERE qty = 7","shape":"array"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"rows":[["second"]]`)

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
}
