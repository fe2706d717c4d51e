package handlers

import (
	"net/http"
	"testing"

	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/testutil/fakes"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_WhenStatementsRan_ThenReturnsCounters(t *testing.T) {
	// Arrange
	session, _ := newSQLiteSession(t, "alice", "bob")
	r := newRouter(session)
	perform(r, http.MethodGet, "/api/v1/tables/missing", "")

	// Act
	w := perform(r, http.MethodGet, "/metrics", "")

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	var stats database.Stats
	decodeData(t, w, &stats)
	// schema + two inserts + failed select
	assert.Equal(t, int64(4), stats.Statements)
	assert.Equal(t, int64(1), stats.Failures)
}

func TestMetrics_WhenFakeStore_ThenPassesCountersThrough(t *testing.T) {
	// Arrange
	store := fakes.NewFakeStore()
	store.Counters = database.Stats{Statements: 12, Failures: 3}
	r := newRouter(NewSession(store))

	// Act
	w := perform(r, http.MethodGet, "/metrics", "")

	// Assert
	assert.JSONEq(t, `{"data":{"statements":12,"failures":3}}`, w.Body.String())
}
