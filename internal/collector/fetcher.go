package collector

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guregu/null/v6"
	"github.com/pkg/errors"

	"StockLens/internal/model"
)

var (
	// ErrNoData is returned when the data source has nothing for a symbol or range.
	ErrNoData = errors.New("no data found")
	// ErrInvalidSymbol is returned for symbols that fail validation.
	ErrInvalidSymbol = errors.New("invalid company symbol")
	// ErrInvalidRange is returned when the end date precedes the start date.
	ErrInvalidRange = errors.New("end date cannot be before start date")
)

// Fetcher defines the interface for fetching market data.
// FetchHistory returns daily bars with start <= date < end in ascending order.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error)
	Name() string
}

// newRestyClient builds an HTTP client that retries transport errors,
// throttling responses and server errors with backoff.
func newRestyClient(baseURL, proxyURL string, retries int) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetRetryCount(retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}

// normalizeBars truncates bar times to calendar dates, drops empty bars
// (holidays etc.), sorts ascending and keeps the last bar seen for each date.
func normalizeBars(bars []model.PriceBar) []model.PriceBar {
	out := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue
		}
		b.Time = dateOf(b.Time)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullIfZero(v float64) null.Float {
	return null.NewFloat(v, v != 0)
}

// percentChange returns (price-prev)/prev*100, null when either side is missing.
func percentChange(price, prev null.Float) null.Float {
	if !price.Valid || !prev.Valid || prev.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((price.Float64 - prev.Float64) / prev.Float64 * 100)
}
