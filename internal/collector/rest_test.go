package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRESTServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bars/daily", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-01-08", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-01-09", r.URL.Query().Get("end"))
		if r.URL.Query().Get("symbol") == "NONE" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2024-01-09", "open": 101, "high": 103, "low": 100, "close": 102, "volume": 2000},
			{"date": "2024-01-08", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 1000},
		})
	})
	mux.HandleFunc("/api/v1/quote", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 105, "previous_close": 100, "open": null, "volume": 42, "market_state": "CLOSED"}`))
	})
	mux.HandleFunc("/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRESTFetcher_History(t *testing.T) {
	srv := newRESTServer(t)
	f := NewRESTFetcher(srv.URL, "secret", "", 0)

	bars, err := f.FetchHistory(context.Background(), "AAPL", day("2024-01-08"), day("2024-01-10"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day("2024-01-08"), bars[0].Time)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, int64(2000), bars[1].Volume)

	_, err = f.FetchHistory(context.Background(), "NONE", day("2024-01-08"), day("2024-01-10"))
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestRESTFetcher_Quote(t *testing.T) {
	srv := newRESTServer(t)
	f := NewRESTFetcher(srv.URL, "", "", 0)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", q.MarketState)
	assert.Equal(t, 105.0, q.Price.Float64)
	assert.False(t, q.Open.Valid)
	assert.Equal(t, int64(42), q.Volume.Int64)
	assert.InDelta(t, 5.0, q.ChangePct.Float64, 1e-9)
}

func TestRESTFetcher_ServerError(t *testing.T) {
	srv := newRESTServer(t)
	f := NewRESTFetcher(srv.URL, "", "", 0)

	_, err := f.FetchProfile(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.False(t, errors.Is(err, ErrNoData))
}
