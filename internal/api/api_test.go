package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockLens/internal/analytics"
	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

func newTestHandler(t *testing.T, f collector.Fetcher, rec recorder.Recorder) http.Handler {
	t.Helper()
	engine, err := analytics.NewEngine(analytics.DefaultOptions())
	require.NoError(t, err)
	svc := analyzer.New(collector.NewCollector(f, zap.NewNop()), engine, rec, zap.NewNop())
	return NewHandler(svc, zap.NewNop()).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func threeBars() []model.PriceBar {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []model.PriceBar{
		{Time: day(2), Open: 99.5, High: 101.004, Low: 99, Close: 100, Volume: 10},
		{Time: day(3), Open: 100, High: 102.5, Low: 99.8, Close: 102, Volume: 20},
		{Time: day(4), Open: 102, High: 102.3, Low: 100.556, Close: 101, Volume: 30},
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Price: 100}, nil)
	w, out := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestGetStock(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Price: 200}, nil)

	w, out := do(t, h, http.MethodGet, "/stock/msft", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MSFT", out["symbol"])
	assert.Equal(t, 200.0, out["current_price"])
	assert.Equal(t, 1.01, out["percentage_change"])
	assert.Equal(t, "REGULAR", out["market_state"])

	w, out = do(t, h, http.MethodGet, "/stock/MS-FT", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid company symbol", out["error"])
}

func TestPostHistorical(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Bars: threeBars()}, nil)

	w, out := do(t, h, http.MethodPost, "/historical_stock",
		`{"symbol":"aapl","start_date":"2024-01-02","end_date":"2024-01-04"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AAPL", out["symbol"])
	data := out["data"].([]interface{})
	require.Len(t, data, 3)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "2024-01-02", first["date"])
	assert.Equal(t, 101.0, first["high"])
	last := data[2].(map[string]interface{})
	assert.Equal(t, 100.56, last["low"])
	assert.Equal(t, 30.0, last["volume"])
}

func TestPostHistorical_Validation(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Price: 100}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad symbol", `{"symbol":"A B","start_date":"2024-01-02","end_date":"2024-01-04"}`, "Invalid company symbol"},
		{"missing symbol", `{"start_date":"2024-01-02","end_date":"2024-01-04"}`, "Invalid company symbol"},
		{"bad date", `{"symbol":"AAPL","start_date":"01/02/2024","end_date":"2024-01-04"}`, "Invalid date format. Use YYYY-MM-DD"},
		{"missing date", `{"symbol":"AAPL","start_date":"2024-01-02"}`, "Invalid date format. Use YYYY-MM-DD"},
		{"impossible date", `{"symbol":"AAPL","start_date":"2024-02-30","end_date":"2024-03-04"}`, "Invalid date format. Use YYYY-MM-DD"},
		{"inverted range", `{"symbol":"AAPL","start_date":"2024-01-04","end_date":"2024-01-02"}`, "End date cannot be before start date"},
		{"not json", `symbol=AAPL`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, h, http.MethodPost, "/historical_stock", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, out["error"])
		})
	}
}

func TestPostHistorical_NoData(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Bars: []model.PriceBar{}}, nil)

	w, out := do(t, h, http.MethodPost, "/historical_stock",
		`{"symbol":"ZZZ","start_date":"2024-01-02","end_date":"2024-01-04"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data found for ZZZ in the specified date range", out["error"])
}

func TestGetCompany(t *testing.T) {
	profile := &model.CompanyProfile{
		Symbol:   "AAPL",
		Name:     "Apple Inc.",
		Sector:   "Technology",
		Officers: []model.Officer{{Name: "Jane Doe", Title: "CEO"}},
	}
	h := newTestHandler(t, &collector.MockFetcher{Profile: profile}, nil)

	w, out := do(t, h, http.MethodGet, "/company/AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Apple Inc.", out["company_name"])
	assert.Nil(t, out["industry"])
	officers := out["officers"].([]interface{})
	require.Len(t, officers, 1)
	assert.Equal(t, "CEO", officers[0].(map[string]interface{})["title"])
}

func TestGetCompany_UpstreamError(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Err: errors.New("connection reset")}, nil)

	w, out := do(t, h, http.MethodGet, "/company/AAPL", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, out["error"], "Error retrieving company data")
	assert.Contains(t, out["error"], "connection reset")
}

func TestPostAnalysis(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Bars: threeBars()}, nil)

	w, out := do(t, h, http.MethodPost, "/company_analysis",
		`{"symbol":"AAPL","start_date":"2024-01-02","end_date":"2024-01-04"}`)
	require.Equal(t, http.StatusOK, w.Code, out)

	assert.Equal(t, "2024-01-04", out["as_of"])
	metrics := out["metrics"].(map[string]interface{})
	assert.Equal(t, 1.0, metrics["price_change_absolute"])
	assert.Equal(t, 1.0, metrics["price_change_percent"])
	assert.Nil(t, metrics["sma_50"])
	assert.Nil(t, metrics["sma_200"])
	assert.NotNil(t, metrics["volatility"])
	assert.Equal(t, 102.5, metrics["recent_high"])
	assert.Equal(t, 99.0, metrics["recent_low"])

	insights := out["insights"].(map[string]interface{})
	assert.Equal(t, "neutral", insights["trend_direction"])
	assert.Contains(t, insights["narrative"], "SMA-200")
}

func TestPostAnalysis_InvalidBar(t *testing.T) {
	bars := threeBars()
	bars[1].Volume = -1
	h := newTestHandler(t, &collector.MockFetcher{Bars: bars}, nil)

	w, out := do(t, h, http.MethodPost, "/company_analysis",
		`{"symbol":"AAPL","start_date":"2024-01-02","end_date":"2024-01-04"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_BAR", out["code"])
	assert.Contains(t, out["error"], "index 1")
}

func TestGetAnalyses(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	defer rec.Close()
	h := newTestHandler(t, &collector.MockFetcher{Bars: threeBars()}, rec)

	for i := 0; i < 2; i++ {
		w, _ := do(t, h, http.MethodPost, "/company_analysis",
			`{"symbol":"AAPL","start_date":"2024-01-02","end_date":"2024-01-04"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, out := do(t, h, http.MethodGet, "/analyses/aapl?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AAPL", out["symbol"])
	analyses := out["analyses"].([]interface{})
	require.Len(t, analyses, 1)
	first := analyses[0].(map[string]interface{})
	assert.Equal(t, "api", first["trigger"])
	assert.Equal(t, "2024-01-02", first["start_date"])

	w, out = do(t, h, http.MethodGet, "/analyses/AAPL?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["error"], "limit")
}

func TestNotFoundAndMethod(t *testing.T) {
	h := newTestHandler(t, &collector.MockFetcher{Price: 100}, nil)

	w, out := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", out["error"])

	w, _ = do(t, h, http.MethodGet, "/company_analysis", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: 2 * time.Second}, http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	_ = srv.Shutdown(context.Background())
}

func TestPostAnalysis_DegenerateInputs(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	tinyRef := []model.PriceBar{
		{Time: day(1), Close: 1e-310},
		{Time: day(2), Close: 1e10},
		{Time: day(3), Close: 1e10},
	}
	var huge []model.PriceBar
	for i := 0; i < 60; i++ {
		huge = append(huge, model.PriceBar{Time: day(2).AddDate(0, 0, i), Close: 1.7e308})
	}

	tests := []struct {
		name string
		bars []model.PriceBar
		end  string
		code string
	}{
		{"subnormal reference close", tinyRef, "2024-01-03", "DIVISION_BY_ZERO"},
		{"overflowing averages", huge, "2024-03-01", "NUMERIC_OVERFLOW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &collector.MockFetcher{Bars: tt.bars}, nil)
			w, out := do(t, h, http.MethodPost, "/company_analysis",
				`{"symbol":"AAPL","start_date":"2024-01-02","end_date":"`+tt.end+`"}`)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, tt.code, out["code"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestRoundNonFinite(t *testing.T) {
	assert.NotPanics(t, func() { round2(math.Inf(1)) })
	assert.True(t, math.IsNaN(round2(math.NaN())))
	assert.False(t, round2Null(null.FloatFrom(math.Inf(-1))).Valid)
	assert.Equal(t, 1.23, round2Null(null.FloatFrom(1.234)).Float64)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out["error"], "encode response")
}
