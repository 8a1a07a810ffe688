package inspect

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/sse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(r *di.Registry) *gin.Engine {
	router := gin.New()
	Register(router.Group("/debug"), func() *di.Registry { return r })
	return router
}

func serve(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func populated() *di.Registry {
	r := di.New(di.WithLogger(logger.Nop()))
	di.Set(r, di.NewScope("db", "primary"), "postgres")
	di.Set(r, di.NewScope("db", "replica"), "postgres")
	di.Set(r, di.NewScope("cache", "/src/app/cache.go:app.init:12"), 3)
	return r
}

func TestListDependencies(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Entries, 3)
	assert.Equal(t, "cache./src/app/cache.go:app.init:12", body.Entries[0].Key)
	assert.Equal(t, "db.primary", body.Entries[1].Key)
	assert.Equal(t, "string", body.Entries[1].Type)
}

func TestListEmptyRegistry(t *testing.T) {
	rec := serve(t, newRouter(di.New(di.WithLogger(logger.Nop()))), "/debug/dependencies")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[],"count":0}`, rec.Body.String())
}

func TestListByFeature(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies?feature=db")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	for _, e := range body.Entries {
		assert.Equal(t, "db", e.Name)
	}
}

func TestListByInvalidFeature(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies?feature=a.b")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDependency(t *testing.T) {
	r := populated()
	tok := di.Override(r, di.NewScope("db", "primary"), func() string { return "" }, "sqlite")
	defer tok.Cancel()

	rec := serve(t, newRouter(r), "/debug/dependencies/db.primary")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry di.EntryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, di.EntryInfo{Key: "db.primary", Name: "db", ID: "primary", Type: "string", Overrides: 1}, entry)
}

func TestGetCallSiteKey(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies/cache./src/app/cache.go:app.init:12")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry di.EntryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "int", entry.Type)
}

func TestGetMissingDependency(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies/db.missing")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeNotFound, body.Error.Code)
}

func TestGetInvalidKey(t *testing.T) {
	rec := serve(t, newRouter(populated()), "/debug/dependencies/nodot")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeInvalidScope, body.Error.Code)
}

func TestSourceCalledPerRequest(t *testing.T) {
	current := di.New(di.WithLogger(logger.Nop()))
	router := gin.New()
	Register(router.Group("/debug"), func() *di.Registry { return current })

	assert.Contains(t, serve(t, router, "/debug/dependencies").Body.String(), `"count":0`)
	current = populated()
	assert.Contains(t, serve(t, router, "/debug/dependencies").Body.String(), `"count":3`)
}

func TestEventsInvalidFilter(t *testing.T) {
	router := gin.New()
	RegisterEvents(router.Group("/debug"), sse.NewHub())

	rec := serve(t, router, "/debug/events?filter=%5B")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeInvalidInput, body.Error.Code)
}

func TestEventsStream(t *testing.T) {
	hub := sse.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := di.New(di.WithLogger(logger.Nop()))
	sse.Feed(r, hub)

	router := gin.New()
	RegisterEvents(router.Group("/debug"), hub)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/debug/events?filter=db", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stream := bufio.NewReader(resp.Body)
	nextData := func() string {
		for {
			line, err := stream.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				return data
			}
		}
	}

	assert.Contains(t, nextData(), `"client_id"`)

	di.Set(r, di.NewScope("db", "primary"), "postgres")
	var payload sse.EventPayload
	require.NoError(t, json.Unmarshal([]byte(nextData()), &payload))
	assert.Equal(t, sse.EventPayload{Kind: "created", Key: "db.primary", Feature: "db"}, payload)
}
