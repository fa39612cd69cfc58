package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"TickerLens/internal/collector"
	"TickerLens/internal/dashboard"
	"TickerLens/internal/metrics"
	"TickerLens/internal/model"
)

type testEnv struct {
	server  *Server
	fetcher *collector.MockFetcher
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, fetcher *collector.MockFetcher) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := dashboard.NewService(collector.NewCollector(fetcher, collector.WithMetrics(m)), 10, m)
	h := NewHandler(svc, "AAPL", 90, m)

	s, err := NewServer(h, WithMetrics(m, reg))
	require.NoError(t, err)
	return &testEnv{server: s, fetcher: fetcher, metrics: m}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

type reportEnvelope struct {
	Status int               `json:"status"`
	Data   *dashboard.Report `json:"data"`
	Errors []*AppError       `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) reportEnvelope {
	t.Helper()
	var env reportEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestAnalysisOK(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{Price: 120, CompanyName: "Apple Inc."})

	rec := env.get(t, "/api/analysis?symbol=aapl&days=60")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	body := decode(t, rec)
	require.NotNil(t, body.Data)
	assert.Equal(t, "AAPL", body.Data.Symbol)
	assert.Equal(t, "Apple Inc.", body.Data.CompanyName)
	assert.Equal(t, model.AnalysisConfig{DaysToAnalyze: 60, SMAWindow: 12, RSIWindow: 7}, body.Data.Config)
	// 60 bars minus the 11 warm-up rows of a 12-day SMA.
	assert.Len(t, body.Data.Rows, 49)
	assert.Len(t, body.Data.Preview, 10)
	require.NotNil(t, body.Data.Assessment)
	assert.Equal(t, 70.0, body.Data.RSILevels.Overbought)
}

func TestAnalysisDefaults(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "AAPL", body.Data.Symbol)
	assert.Equal(t, 90, body.Data.Config.DaysToAnalyze)
}

func TestAnalysisValidation(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	cases := []struct {
		query string
		field string
	}{
		{"?symbol=AAPL&days=20", "days"},
		{"?symbol=AAPL&days=365", "days"},
		{"?symbol=AAPL&days=abc", ""},
		{"?symbol=ABCDEFGHIJKLMNOPQ&days=90", "symbol"},
	}
	for _, c := range cases {
		rec := env.get(t, "/api/analysis"+c.query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, c.query)
		body := decode(t, rec)
		require.NotEmpty(t, body.Errors, c.query)
		assert.Equal(t, CodeValidation, body.Errors[0].Code, c.query)
		assert.Equal(t, c.field, body.Errors[0].Field, c.query)
	}
	assert.Zero(t, env.fetcher.Calls(), "invalid requests must not reach the provider")
}

func TestAnalysisUnknownSymbol(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{Empty: true})

	rec := env.get(t, "/api/analysis?symbol=NOPE&days=90")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, CodeSymbolNotFound, body.Errors[0].Code)
	assert.Equal(t, "No data found. Please check the stock symbol.", body.Errors[0].Message)
}

func TestAnalysisInsufficientData(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 10)
	for i := range bars {
		bars[i] = model.OHLCV{Time: day.AddDate(0, 0, i), Close: float64(20 + i%3)}
	}
	env := newTestEnv(t, &collector.MockFetcher{DailyData: bars})

	rec := env.get(t, "/api/analysis?symbol=NEW&days=90")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, CodeInsufficientData, body.Errors[0].Code)
	assert.EqualValues(t, 10, body.Errors[0].Params["have"])
	assert.EqualValues(t, 19, body.Errors[0].Params["need"])
}

func TestAnalysisUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{Err: errors.New("dial tcp: i/o timeout")})

	rec := env.get(t, "/api/analysis?symbol=AAPL&days=90")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeUpstream, body.Errors[0].Code)
	assert.NotContains(t, rec.Body.String(), "i/o timeout")
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis/export?symbol=msft&days=30")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="MSFT_analysis.csv"`)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Open", "High", "Low", "Close", "Volume", "SMA_6", "RSI_7"}, records[0])
	assert.Len(t, records, 1+23)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ExportTotal.WithLabelValues("csv")))
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis/export?symbol=AAPL&days=45&format=xlsx")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "AAPL_analysis.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Analysis")
	require.NoError(t, err)
	assert.Equal(t, "SMA_9", rows[0][6])
}

func TestExportSQLite(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis/export?symbol=AAPL&days=45&format=db")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), "SQLite format 3\x00"))
}

func TestExportFormatCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis/export?symbol=AAPL&days=45&format=XLSX")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "AAPL_analysis.xlsx")

	rec = env.get(t, "/api/analysis/export?symbol=AAPL&days=45&format=Csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestExportBadFormat(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/api/analysis/export?symbol=AAPL&format=pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "format", body.Errors[0].Field)
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/?symbol=tsla&days=120")
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `value="TSLA"`)
	assert.Contains(t, html, `min="30" max="180" step="15" value="120"`)
	assert.Contains(t, html, "chart.js")
	assert.Zero(t, env.fetcher.Calls())
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	env.get(t, "/api/analysis?symbol=AAPL&days=90")
	rec = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tickerlens_analysis_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/analysis",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, &collector.MockFetcher{})

	rec := env.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeNotFound, body.Errors[0].Code)
}
