package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/statsapi"
	"github.com/blockedby/flight-stats/internal/view"
	"github.com/blockedby/flight-stats/internal/web"
)

// MockFetcher mocks the upstream statistics client
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchReport(ctx context.Context, year int) (*stats.Report, error) {
	args := m.Called(ctx, year)
	var report *stats.Report
	if v := args.Get(0); v != nil {
		report = v.(*stats.Report)
	}
	return report, args.Error(1)
}

func sampleReport() *stats.Report {
	return &stats.Report{Months: []stats.MonthStat{
		{
			Month:         1,
			TotalFlights:  stats.Ptr(5),
			PaidCount:     stats.Ptr(3),
			CanceledCount: stats.Ptr(2),
			PaidTotal:     stats.Ptr("1,500,000 VND"),
			CanceledTotal: stats.Ptr("400,000 VND"),
		},
		{Month: 2, TotalFlights: stats.Ptr(7), PaidCount: stats.Ptr(7)},
	}}
}

func setupStatsServer(t *testing.T, fetcher view.Fetcher) *httptest.Server {
	t.Helper()

	tmpl := web.NewTemplateEngine("", false)
	require.NoError(t, tmpl.Load())

	handler := NewStatsHandler(tmpl, view.NewFactory(fetcher), stats.DefaultYear, nil)

	srv := web.NewServer(&web.Config{}, nil)
	srv.RegisterStatsHandler(handler)

	return httptest.NewServer(srv.Router())
}

func get(t *testing.T, url string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestStatsPage_RendersTable(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, 2024).Return(sampleReport(), nil).Once()

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	resp, html := get(t, srv.URL+"/?year=2024", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Revenue statistics 2024")
	assert.Contains(t, html, `<option value="2024" selected>`)
	assert.Contains(t, html, "Month 1")
	assert.Contains(t, html, "Month 2")
	assert.Contains(t, html, "1,500,000 VND")
	// month 2 has no money totals
	assert.Contains(t, html, stats.DefaultCurrencyTotal)
	assert.Contains(t, html, `class="stats-summary"`)
	assert.Contains(t, html, "<td>12</td>")
	assert.NotContains(t, html, view.LoadingMessage)

	fetcher.AssertExpectations(t)
}

func TestStatsPage_DefaultYear(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, stats.DefaultYear).Return(&stats.Report{}, nil).Once()

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	resp, html := get(t, srv.URL+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, `<option value="2025" selected>`)
	assert.Contains(t, html, view.EmptyMessage)

	fetcher.AssertExpectations(t)
}

func TestStatsPage_InvalidYear(t *testing.T) {
	fetcher := new(MockFetcher)

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	for _, q := range []string{"2019", "abc"} {
		resp, _ := get(t, srv.URL+"/?year="+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "year=%s", q)
	}

	fetcher.AssertNotCalled(t, "FetchReport", mock.Anything, mock.Anything)
}

func TestStatsPage_HTMXPartialResponse(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, 2023).Return(sampleReport(), nil)

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	_, html := get(t, srv.URL+"/?year=2023", map[string]string{"HX-Request": "true"})

	assert.NotContains(t, html, "<!DOCTYPE html>")
	assert.NotContains(t, html, "<head>")
	assert.Contains(t, html, "Revenue statistics 2023")
}

func TestStatsPartial_States(t *testing.T) {
	tests := []struct {
		name     string
		report   *stats.Report
		err      error
		contains []string
		absent   []string
	}{
		{
			name:     "http status failure",
			err:      &statsapi.FetchError{Kind: statsapi.KindHTTPStatus, StatusCode: 500},
			contains: []string{`role="alert"`, view.ErrorTitle, "HTTP error! status: 500"},
			absent:   []string{"<table>", view.EmptyMessage},
		},
		{
			name:     "connectivity failure",
			err:      &statsapi.FetchError{Kind: statsapi.KindConnectivity},
			contains: []string{`data-kind="connectivity"`, "Is the server running?"},
			absent:   []string{"<table>"},
		},
		{
			name:     "empty months",
			report:   &stats.Report{Months: []stats.MonthStat{}},
			contains: []string{view.EmptyMessage},
			absent:   []string{"<table>", `role="alert"`},
		},
		{
			name:     "data",
			report:   sampleReport(),
			contains: []string{"<table>", "Month 1", `class="highlight"`},
			absent:   []string{"<!DOCTYPE html>", view.EmptyMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			fetcher.On("FetchReport", mock.Anything, 2025).Return(tt.report, tt.err)

			srv := setupStatsServer(t, fetcher)
			defer srv.Close()

			resp, html := get(t, srv.URL+"/partials/stats?year=2025", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, html, s)
			}
		})
	}
}

func TestStatsAPI_Success(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, 2024).Return(sampleReport(), nil)

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/v1/stats?year=2024", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var m view.Model
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, view.PhaseSuccess, m.Phase)
	assert.Equal(t, 2024, m.Year)
	require.Len(t, m.Rows, 2)
	require.NotNil(t, m.Summary)
	assert.Equal(t, stats.Summary{TotalFlights: 12, PaidCount: 10, CanceledCount: 2}, *m.Summary)
	assert.Nil(t, m.Error)
}

func TestStatsAPI_Failure(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, 2025).
		Return(nil, &statsapi.FetchError{Kind: statsapi.KindTimeout, Timeout: statsapi.DefaultTimeout})

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/v1/stats", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var m view.Model
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, view.PhaseFailure, m.Phase)
	require.NotNil(t, m.Error)
	assert.Equal(t, "timeout", m.Error.Kind)
	assert.Contains(t, m.Error.Message, "10 seconds")
	assert.Empty(t, m.Rows)
}

func TestStatsAPI_InvalidYear(t *testing.T) {
	srv := setupStatsServer(t, new(MockFetcher))
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/v1/stats?year=1990", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Contains(t, payload["error"], "not selectable")
}

func TestStatsAPI_CORS(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchReport", mock.Anything, 2025).Return(&stats.Report{}, nil)

	srv := setupStatsServer(t, fetcher)
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/v1/stats", map[string]string{"Origin": "http://frontend.test"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()

	assert.Less(t, preflight.StatusCode, 300)
	assert.Equal(t, "*", preflight.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodGet)
}
