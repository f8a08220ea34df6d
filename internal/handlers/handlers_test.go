package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/internal/handlers"
	"marquee/internal/models"
	"marquee/internal/repository"
	"marquee/internal/services"
)

type fakeResolver struct {
	mu      sync.Mutex
	queries []models.QuerySpec
}

func (f *fakeResolver) Resolve(_ context.Context, q models.QuerySpec) models.ListEnvelope {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return models.SinglePage([]models.CatalogItem{{ID: 1, MediaType: q.MediaType, Title: string(q.Category)}}, "mirror")
}

func (f *fakeResolver) ResolveMany(ctx context.Context, queries []models.QuerySpec) []models.ListEnvelope {
	out := make([]models.ListEnvelope, len(queries))
	for i, q := range queries {
		out[i] = f.Resolve(ctx, q)
	}
	return out
}

type fakeRunner struct {
	result  services.RunResult
	err     error
	pageCap int
	last    *services.RunResult
}

func (f *fakeRunner) Run(_ context.Context, pageCap int) (services.RunResult, error) {
	f.pageCap = pageCap
	if f.err != nil {
		return services.RunResult{}, f.err
	}
	f.last = &f.result
	return f.result, nil
}

func (f *fakeRunner) Running() bool { return false }

func (f *fakeRunner) LastRun() (services.RunResult, bool) {
	if f.last == nil {
		return services.RunResult{}, false
	}
	return *f.last, true
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	router   http.Handler
	resolver *fakeResolver
	runner   *fakeRunner
	store    *repository.MemoryCatalogStore
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{
		resolver: &fakeResolver{},
		runner:   &fakeRunner{result: services.RunResult{ItemsWritten: 42, Created: 40, Updated: 2}},
		store:    repository.NewMemoryCatalogStore(),
	}
	_, err := f.store.Upsert(context.Background(), &models.CatalogItem{ID: 603, MediaType: models.MediaMovie, Title: "The Matrix"})
	require.NoError(t, err)

	log := quietLogger()
	f.router = handlers.NewRouter(
		handlers.NewCatalogHandler(f.resolver, log),
		handlers.NewAdminHandler(f.runner, f.store, 50, time.Minute, log),
		token,
	)
	return f
}

func (f *fixture) do(method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := newFixture(t, "").do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListParsesQuery(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/api/catalog/tv/top_rated?page=3&genre=18&year=2008", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env models.ListEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "mirror", env.Source)

	require.Len(t, f.resolver.queries, 1)
	q := f.resolver.queries[0]
	assert.Equal(t, models.MediaShow, q.MediaType)
	assert.Equal(t, models.CategoryTopRated, q.Category)
	assert.Equal(t, 3, q.Page)
	require.NotNil(t, q.GenreID)
	assert.Equal(t, 18, *q.GenreID)
	require.NotNil(t, q.Year)
	assert.Equal(t, 2008, *q.Year)
}

func TestListRejectsBadInput(t *testing.T) {
	f := newFixture(t, "")
	for _, target := range []string{
		"/api/catalog/podcast/popular",
		"/api/catalog/movie/popular?page=two",
		"/api/catalog/movie/popular?genre=action",
		"/api/catalog/movie/popular?year=nineties",
	} {
		rec := f.do(http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Empty(t, f.resolver.queries)
}

func TestHomeRowsInOrder(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/api/catalog/movie", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []handlers.HomeRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 4)
	assert.Equal(t, models.CategoryTrending, rows[0].Category)
	assert.Equal(t, models.CategoryNowPlaying, rows[3].Category)
	for _, row := range rows {
		assert.Equal(t, string(row.Category), row.Listing.Results[0].Title)
	}
}

func TestTriggerIngest(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/api/admin/ingest?pageCap=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result services.RunResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 42, result.ItemsWritten)
	assert.Equal(t, 3, f.runner.pageCap)

	rec = f.do(http.MethodPost, "/api/admin/ingest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, f.runner.pageCap)

	rec = f.do(http.MethodPost, "/api/admin/ingest?pageCap=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerIngestConflict(t *testing.T) {
	f := newFixture(t, "")
	f.runner.err = services.ErrRunInProgress

	rec := f.do(http.MethodPost, "/api/admin/ingest", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIngestStatus(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/api/admin/ingest/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status handlers.IngestStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.Running)
	assert.Nil(t, status.LastRun)

	f.do(http.MethodPost, "/api/admin/ingest", "", nil)
	rec = f.do(http.MethodGet, "/api/admin/ingest/status", "", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	require.NotNil(t, status.LastRun)
	assert.Equal(t, 42, status.LastRun.ItemsWritten)
}

func TestSetVisibility(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPut, "/api/admin/catalog/movie/603/visibility", `{"visible": false}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	row, ok := f.store.Get(models.MediaMovie, 603)
	require.True(t, ok)
	assert.False(t, row.Visible)

	rec = f.do(http.MethodPut, "/api/admin/catalog/show/603/visibility", `{"visible": false}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPut, "/api/admin/catalog/movie/603/visibility", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminToken(t *testing.T) {
	f := newFixture(t, "s3cret")

	rec := f.do(http.MethodGet, "/api/admin/ingest/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/admin/ingest/status", "", map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/admin/ingest/status", "", map[string]string{"X-Admin-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/catalog/movie/popular", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
