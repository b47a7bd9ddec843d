package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

func seededRouter(t *testing.T) (*gin.Engine, graph.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := graph.NewMemoryStore()

	alice, err := store.CreateUser(ctx, "11", "Alice")
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, "22", "Bob")
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, store.CreateQuote(ctx, graph.Quote{ID: id, Text: "quote " + id, CreatedAt: time.Unix(1700000000, 0), AuthorID: alice.ID}))
	}
	require.NoError(t, store.AddRelation(ctx, graph.Said, bob.ID, "1"))

	log := zap.NewNop()
	return newRouter(newAPI(store, log), log), store
}

func get(router http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := seededRouter(t)

	w, body := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(4), body["quotes"])
}

func TestRankingEndpoint(t *testing.T) {
	router, _ := seededRouter(t)

	w, body := get(router, "/api/ranking/said")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["total"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	first := entries[0].(map[string]any)
	assert.Equal(t, "Bob", first["name"])
	assert.Equal(t, float64(25), first["percentage"])

	w, _ = get(router, "/api/ranking/sung")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := seededRouter(t)

	w, body := get(router, "/api/users/Alice/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["wrote"])
	assert.Equal(t, float64(100), body["wrote_pct"])

	w, body = get(router, "/api/users/"+url.PathEscape("<@22>")+"/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob", body["name"])
	assert.Equal(t, float64(1), body["said"])

	w, _ = get(router, "/api/users/Nobody/stats")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = get(router, "/api/users/"+url.PathEscape("<@abc>")+"/stats")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotesEndpoint(t *testing.T) {
	router, _ := seededRouter(t)

	w, body := get(router, "/api/users/Bob/quotes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "said", body["kind"])
	quotes := body["quotes"].([]any)
	require.Len(t, quotes, 1)
	assert.Equal(t, "quote 1", quotes[0].(map[string]any)["text"])

	w, body = get(router, "/api/users/Alice/quotes?kind=wrote")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["quotes"], 4)

	w, _ = get(router, "/api/users/Alice/quotes?kind=sung")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// downStore reports every count as unavailable
type downStore struct {
	graph.Store
}

func (downStore) TotalQuoteCount(context.Context) (int, error) {
	return 0, apperrors.NewStorageUnavailable("TotalQuoteCount", errors.New("connection refused"))
}

func TestEndpointsWhenStorageIsDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	router := newRouter(newAPI(downStore{Store: graph.NewMemoryStore()}, log), log)

	w, _ := get(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = get(router, "/api/ranking/said")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := seededRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/ranking/said", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
