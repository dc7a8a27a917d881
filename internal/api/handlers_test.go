package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

func fakeFetcher() prefetch.Fetcher {
	return prefetch.FetcherFunc(func(_ context.Context, datai, _ string) ([]agenda.RawRecord, error) {
		return []agenda.RawRecord{
			{
				"paciente":     "Maria Souza",
				"profissional": "Dra. Lima",
				"data":         datai,
				"hora":         "08:30",
				"status":       "confirmado",
			},
			{
				"paciente":     "João da Silva",
				"profissional": "Dr. Alves",
				"data":         datai,
				"hora":         "09:00",
				"status":       "desmarcado",
			},
		}, nil
	})
}

func newTestRouter(f prefetch.Fetcher) http.Handler {
	engine := prefetch.NewEngine(f, prefetch.NewMemoryCache(), 4)
	return NewRouter(RouterConfig{
		Engine:   engine,
		SpanDays: 30,
		Env:      "test",
		Version:  "test",
	})
}

func doJSON(t *testing.T, h http.Handler, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestEventsEndpoint(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp EventsResponse
	rec := doJSON(t, h, http.MethodGet, "/agenda/events?datai=2026-01-01&dataf=2026-01-04", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.OK)

	assert.Equal(t, "2026-01-01", resp.Range.DataI)
	assert.Equal(t, "2026-01-04", resp.Range.DataF)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, len(resp.Events), resp.FilteredCount)
	assert.False(t, resp.Progress.Running)
	assert.Equal(t, resp.Progress.Total, resp.Progress.Done)

	// the default admin view carries patient and professional in the title
	titles := []string{resp.Events[0].Title, resp.Events[1].Title}
	assert.Contains(t, titles, "Maria Souza • Dra. Lima")
	assert.Contains(t, titles, "João da Silva • Dr. Alves")
}

func TestEventsEndpointStatusFilter(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp EventsResponse
	rec := doJSON(t, h, http.MethodGet,
		"/agenda/events?datai=2026-01-01&dataf=2026-01-04&status=Desmarcado", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, resp.Events, 1)
	assert.Equal(t, 1, resp.FilteredCount)
	assert.Equal(t, agenda.StatusCancelled, resp.Events[0].Extended.Status)
	assert.Equal(t, agenda.StatusCancelled.Color(), resp.Events[0].Color)
}

func TestEventsEndpointProfessionalMode(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp EventsResponse
	doJSON(t, h, http.MethodGet,
		"/agenda/events?datai=2026-01-01&dataf=2026-01-04&mode=professional&prof=Dra.+Lima", &resp)

	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Maria Souza", resp.Events[0].Title)
}

func TestEventsEndpointInvalidRange(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp ErrorResponse
	rec := doJSON(t, h, http.MethodGet, "/agenda/events?datai=2026-02-01&dataf=2026-01-01", &resp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_range", resp.Error)
}

func TestProgressEndpoint(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp ProgressResponse
	rec := doJSON(t, h, http.MethodGet, "/agenda/progress", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
	assert.False(t, resp.Progress.Running)
	assert.Zero(t, resp.Progress.Total)
}

func TestReloadEndpoint(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	// load a window first so reload has one to repeat
	doJSON(t, h, http.MethodGet, "/agenda/events?datai=2026-01-01&dataf=2026-01-04", nil)

	var resp ReloadResponse
	rec := doJSON(t, h, http.MethodPost, "/agenda/reload", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
	assert.Equal(t, "2026-01-01", resp.Range.DataI)
	assert.Equal(t, 2, resp.Records)
}

func TestProfessionalsEndpoint(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	var resp ProfessionalsResponse
	rec := doJSON(t, h, http.MethodGet, "/agenda/professionals", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
	require.NotEmpty(t, resp.Professionals)
	assert.Equal(t, agenda.FilterAll, resp.Professionals[0])
	assert.Contains(t, resp.Professionals, "Dra. Lima")
	assert.Contains(t, resp.Professionals, "Dr. Alves")
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(fakeFetcher())

	rec := doJSON(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var ready map[string]any
	rec = doJSON(t, h, http.MethodGet, "/health/ready", &ready)
	assert.Equal(t, http.StatusOK, rec.Code)
	deps, ok := ready["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestRouter(fakeFetcher())
	rec := doJSON(t, h, http.MethodGet, "/agenda/progress", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
