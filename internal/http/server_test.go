package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	"bikeshare/internal/log"
	"bikeshare/internal/source/memory"
)

func threeDays() []core.DailyRecord {
	return []core.DailyRecord{
		{Date: core.NewDate(2011, 1, 3), Season: 1, Weekday: 1, Weathersit: 1, Casual: 120, Registered: 1229, Total: 1349},
		{Date: core.NewDate(2011, 1, 1), Season: 1, Weekday: 6, Weathersit: 2, Casual: 331, Registered: 654, Total: 985},
		{Date: core.NewDate(2011, 1, 2), Season: 1, Weekday: 0, Weathersit: 2, Casual: 131, Registered: 670, Total: 801},
	}
}

func newTestServer(t *testing.T, records []core.DailyRecord) *Server {
	t.Helper()
	labels := core.DefaultLabels()
	holder := dataset.NewHolder()
	if records != nil {
		ds, err := dataset.Load(context.Background(), memory.New(records...), labels)
		require.NoError(t, err)
		holder.Store(ds)
	}
	return newServerWith(t, Options{Holder: holder, Labels: labels})
}

func newServerWith(t *testing.T, opts Options) *Server {
	t.Helper()
	var buf bytes.Buffer
	cfg := log.DefaultConfig()
	cfg.Output = &buf
	opts.Logger = log.New(cfg)
	opts.Addr = ":0"
	opts.ChartCacheSize = 16
	opts.ChartCacheTTL = time.Minute
	opts.RateLimitRPM = 1000
	srv, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) summaryResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t, threeDays())

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bike Sharing Dashboard")
	assert.Contains(t, body, "Bike Sharing User Data")
	assert.Contains(t, body, "Total Bike Rental Users")
	assert.Contains(t, body, "3,135")
	assert.Contains(t, body, `min="2011-01-01"`)
	assert.Contains(t, body, `max="2011-01-03"`)
	assert.Contains(t, body, "/charts/season.svg?end=2011-01-03&amp;start=2011-01-01")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
}

func TestDashboardPartial(t *testing.T) {
	srv := newTestServer(t, threeDays())

	rec := get(t, srv, "/ui/dashboard?start=2011-01-02&end=2011-01-02")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="dashboard"`)
	assert.Contains(t, body, "801")
	assert.Contains(t, body, "(1 days)")
	assert.NotContains(t, body, "<html")
	assert.Equal(t, 5, strings.Count(body, "<figure"))

	rec = get(t, srv, "/ui/dashboard?start=2011-02-01&end=2011-02-05")
	assert.Contains(t, rec.Body.String(), "No data in selected range")
}

func TestSummaryAPI(t *testing.T) {
	srv := newTestServer(t, threeDays())

	resp := decodeSummary(t, get(t, srv, "/api/summary"))
	assert.Equal(t, "2011-01-01", resp.Start)
	assert.Equal(t, "2011-01-03", resp.End)
	assert.Equal(t, summaryJSON{Days: 3, TotalRentals: 3135, CasualRentals: 582, RegisteredRentals: 2553}, resp.Summary)
	require.Len(t, resp.Daily, 3)
	assert.Equal(t, "2011-01-01", resp.Daily[0].Date)
	assert.Equal(t, []categoryJSON{{Code: 1, Label: "Spring", Total: 3135}}, resp.Season)
	assert.Equal(t, []categoryJSON{
		{Code: 1, Label: "Clear", Total: 1349},
		{Code: 2, Label: "Mist", Total: 1786},
	}, resp.Weathersit)
	assert.Len(t, resp.Weekday, 3)
}

func TestSummaryAPIRanges(t *testing.T) {
	srv := newTestServer(t, threeDays())

	t.Run("inverted range is empty", func(t *testing.T) {
		resp := decodeSummary(t, get(t, srv, "/api/summary?start=2011-01-03&end=2011-01-01"))
		assert.Equal(t, 0, resp.Summary.Days)
		assert.Empty(t, resp.Daily)
		assert.Empty(t, resp.Season)
		assert.Empty(t, resp.Weathersit)
		assert.Empty(t, resp.Weekday)
	})

	t.Run("unparsable bound falls back", func(t *testing.T) {
		resp := decodeSummary(t, get(t, srv, "/api/summary?start=yesterday&end=2011-01-02"))
		assert.Equal(t, "2011-01-01", resp.Start)
		assert.Equal(t, int64(985+801), resp.Summary.TotalRentals)
	})

	t.Run("out of span clamps for display", func(t *testing.T) {
		resp := decodeSummary(t, get(t, srv, "/api/summary?start=2010-06-01&end=2012-01-01"))
		assert.Equal(t, "2011-01-01", resp.Start)
		assert.Equal(t, "2011-01-03", resp.End)
		assert.Equal(t, 3, resp.Summary.Days)
	})
}

func TestSingleDayDatasetIsPinned(t *testing.T) {
	srv := newTestServer(t, threeDays()[:1])

	rec := get(t, srv, "/?start=2000-01-01&end=2000-01-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "single day")
	assert.NotContains(t, rec.Body.String(), `type="date"`)

	resp := decodeSummary(t, get(t, srv, "/api/summary?start=2000-01-01&end=2000-01-02"))
	assert.Equal(t, "2011-01-03", resp.Start)
	assert.Equal(t, 1, resp.Summary.Days)
}

func TestCharts(t *testing.T) {
	srv := newTestServer(t, threeDays())

	for _, name := range []string{"daily", "users", "season", "weathersit", "weekday"} {
		t.Run(name, func(t *testing.T) {
			rec := get(t, srv, "/charts/"+name+".svg?start=2011-01-01&end=2011-01-03")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "<svg")

			again := get(t, srv, "/charts/"+name+".svg?start=2011-01-01&end=2011-01-03")
			assert.Equal(t, rec.Body.String(), again.Body.String())
		})
	}
	assert.Equal(t, 5, srv.charts.Size())

	rec := get(t, srv, "/charts/daily.svg?start=2012-01-01&end=2012-01-31")
	require.Equal(t, http.StatusOK, rec.Code, "empty range renders a placeholder")
	assert.Contains(t, rec.Body.String(), "No data in selected range")

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/charts/pie.svg").Code)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, threeDays())

	rec := get(t, srv, "/export.xlsx?start=2011-01-01&end=2011-01-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="bikeshare_2011-01-01_2011-01-02.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Daily", "Season", "Weathersit", "Weekday"}, f.GetSheetList())
	rows, err := f.GetRows("Daily")
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header, two days, total")
}

func TestProbes(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/ui/dashboard").Code)

	srv = newTestServer(t, threeDays())
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bikeshare_dataset_records")
}

func TestLoadErrorPage(t *testing.T) {
	loadErr := &core.LabelError{Unmapped: []core.UnmappedCode{{Category: "season", Code: 5, Days: 2}}}
	srv := newServerWith(t, Options{Labels: core.DefaultLabels(), LoadErr: loadErr})

	rec := get(t, srv, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dataset unavailable")
	assert.Contains(t, rec.Body.String(), "season code 5 on 2 days")

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/summary").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestReloadedDatasetIsServed(t *testing.T) {
	labels := core.DefaultLabels()
	store := memory.New(threeDays()...)
	holder := dataset.NewHolder()
	require.NoError(t, holder.Reload(context.Background(), store, labels))
	srv := newServerWith(t, Options{Holder: holder, Labels: labels})

	first := get(t, srv, "/charts/daily.svg").Body.String()

	recs := threeDays()
	recs[0].Total, recs[0].Registered = 5000, 4880
	require.NoError(t, store.ReplaceRecords(context.Background(), recs))
	require.NoError(t, holder.Reload(context.Background(), store, labels))

	resp := decodeSummary(t, get(t, srv, "/api/summary"))
	assert.Equal(t, int64(985+801+5000), resp.Summary.TotalRentals)
	assert.NotEqual(t, first, get(t, srv, "/charts/daily.svg").Body.String())
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/":                   "/",
		"/ui/dashboard":       "/ui/dashboard",
		"/charts/daily.svg":   "/charts/{name}",
		"/static/app.css":     "/static/",
		"/wp-admin/setup.php": "other",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeLabel(httptest.NewRequest(http.MethodGet, path, nil)), path)
	}
}
