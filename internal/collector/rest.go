package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guregu/null/v6"
	"github.com/pkg/errors"

	"StockLens/internal/model"
)

// RESTFetcher implements Fetcher against a generic market data REST service.
//
//	GET /api/v1/bars/daily?symbol=&start=YYYY-MM-DD&end=YYYY-MM-DD
//	GET /api/v1/quote?symbol=
//	GET /api/v1/profile?symbol=
type RESTFetcher struct {
	Client *resty.Client
}

// NewRESTFetcher creates a fetcher for baseURL. A non-empty apiKey is sent as
// a bearer token.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, retries int) *RESTFetcher {
	client := newRestyClient(baseURL, proxyURL, retries)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &RESTFetcher{Client: client}
}

func (f *RESTFetcher) Name() string { return "rest" }

type restBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type restQuote struct {
	Price         null.Float `json:"price"`
	PreviousClose null.Float `json:"previous_close"`
	Open          null.Float `json:"open"`
	High          null.Float `json:"high"`
	Low           null.Float `json:"low"`
	Volume        null.Int   `json:"volume"`
	MarketState   string     `json:"market_state"`
}

type restProfile struct {
	Name     string          `json:"name"`
	Summary  string          `json:"summary"`
	Industry string          `json:"industry"`
	Sector   string          `json:"sector"`
	Officers []model.Officer `json:"officers"`
}

func (f *RESTFetcher) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	resp, err := f.Client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return errors.Wrapf(ErrNoData, "GET %s", path)
	}
	if resp.IsError() {
		return errors.Errorf("GET %s: status %d, body: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

// FetchHistory retrieves daily bars in [start, end). The service treats its
// end parameter as inclusive, so the day before end is sent.
func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	var raw []restBar
	err := f.get(ctx, "/api/v1/bars/daily", map[string]string{
		"symbol": symbol,
		"start":  start.Format(model.DateLayout),
		"end":    end.AddDate(0, 0, -1).Format(model.DateLayout),
	}, &raw)
	if err != nil {
		return nil, err
	}

	bars := make([]model.PriceBar, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse(model.DateLayout, r.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "parse bar date %q", r.Date)
		}
		if t.Before(dateOf(start)) || !t.Before(end) {
			continue
		}
		bars = append(bars, model.PriceBar{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return normalizeBars(bars), nil
}

// FetchQuote retrieves the latest quote.
func (f *RESTFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var raw restQuote
	if err := f.get(ctx, "/api/v1/quote", map[string]string{"symbol": symbol}, &raw); err != nil {
		return nil, err
	}
	return &model.Quote{
		Symbol:        symbol,
		MarketState:   raw.MarketState,
		Price:         raw.Price,
		PreviousClose: raw.PreviousClose,
		ChangePct:     percentChange(raw.Price, raw.PreviousClose),
		Open:          raw.Open,
		High:          raw.High,
		Low:           raw.Low,
		Volume:        raw.Volume,
		FetchedAt:     time.Now(),
	}, nil
}

// FetchProfile retrieves company metadata.
func (f *RESTFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	var raw restProfile
	if err := f.get(ctx, "/api/v1/profile", map[string]string{"symbol": symbol}, &raw); err != nil {
		return nil, err
	}
	return &model.CompanyProfile{
		Symbol:          symbol,
		Name:            raw.Name,
		BusinessSummary: raw.Summary,
		Industry:        raw.Industry,
		Sector:          raw.Sector,
		Officers:        raw.Officers,
	}, nil
}
