package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
	"github.com/Sgct97/truckingCompanyCrawler/internal/pool"
)

type fakeSource struct {
	progress pool.Progress
	sites    map[string]pool.SiteStatus
}

func (f fakeSource) Status() pool.Progress { return f.progress }

func (f fakeSource) SiteStatus(id string) (pool.SiteStatus, bool) {
	s, ok := f.sites[id]
	return s, ok
}

func newTestServer() *Server {
	return NewServer(fakeSource{
		progress: pool.Progress{
			RunID:      "run-1",
			TotalSites: 2,
			Done:       1,
			InProgress: 1,
		},
		sites: map[string]pool.SiteStatus{
			"acme": {SiteID: "acme", Name: "Acme Freight", State: audit.SiteStateDone, PagesFetched: 12},
		},
	}, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProgress(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var progress pool.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	require.Equal(t, "run-1", progress.RunID)
	require.Equal(t, 2, progress.TotalSites)
	require.Equal(t, 1, progress.Done)
}

func TestGetSiteFoundAndMissing(t *testing.T) {
	t.Parallel()

	srv := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sites/acme", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status pool.SiteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, audit.SiteStateDone, status.State)
	require.Equal(t, 12, status.PagesFetched)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sites/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
