package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guregu/null/v6"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/pkg/errors"

	"StockLens/internal/model"
)

// DefaultYahooBaseURL serves the quoteSummary endpoint used for profiles.
const DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance. History and quotes go
// through finance-go; company profiles come from the quoteSummary endpoint.
type YahooFetcher struct {
	Client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, retries int) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		Client: newRestyClient(baseURL, proxyURL, retries),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// FetchHistory retrieves daily bars in [start, end).
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter := chart.Get(&chart.Params{
		Symbol:   f.yahooSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []model.PriceBar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(int64(b.Timestamp), 0),
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  b.Close.InexactFloat64(),
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(err, "yahoo chart %s", symbol)
	}
	return normalizeBars(bars), nil
}

// FetchQuote retrieves the live quote for symbol.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := quote.Get(f.yahooSymbol(symbol))
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo quote %s", symbol)
	}
	if q == nil {
		return nil, errors.Wrapf(ErrNoData, "yahoo quote %s", symbol)
	}
	return quoteFromYahoo(symbol, q, time.Now()), nil
}

// quoteFromYahoo maps a Yahoo quote, reading zero fields as missing.
func quoteFromYahoo(symbol string, q *finance.Quote, at time.Time) *model.Quote {
	out := &model.Quote{
		Symbol:        symbol,
		MarketState:   string(q.MarketState),
		Price:         nullIfZero(q.RegularMarketPrice),
		PreviousClose: nullIfZero(q.RegularMarketPreviousClose),
		Open:          nullIfZero(q.RegularMarketOpen),
		High:          nullIfZero(q.RegularMarketDayHigh),
		Low:           nullIfZero(q.RegularMarketDayLow),
		Volume:        null.NewInt(int64(q.RegularMarketVolume), q.RegularMarketVolume != 0),
		FetchedAt:     at,
	}
	out.ChangePct = percentChange(out.Price, out.PreviousClose)
	return out
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Industry            string `json:"industry"`
				Sector              string `json:"sector"`
				LongBusinessSummary string `json:"longBusinessSummary"`
				CompanyOfficers     []struct {
					Name  string `json:"name"`
					Title string `json:"title"`
				} `json:"companyOfficers"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FetchProfile retrieves company metadata from the assetProfile module.
func (f *YahooFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	var out quoteSummaryResponse
	resp, err := f.Client.R().
		SetContext(ctx).
		SetPathParam("symbol", f.yahooSymbol(symbol)).
		SetQueryParam("modules", "assetProfile,price").
		SetResult(&out).
		Get("/v10/finance/quoteSummary/{symbol}")
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo profile %s", symbol)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNoData, "yahoo profile %s", symbol)
	}
	if resp.IsError() {
		return nil, errors.Errorf("yahoo profile %s: status %d, body: %s", symbol, resp.StatusCode(), resp.String())
	}
	if len(out.QuoteSummary.Result) == 0 {
		return nil, errors.Wrapf(ErrNoData, "yahoo profile %s", symbol)
	}

	r := out.QuoteSummary.Result[0]
	profile := &model.CompanyProfile{
		Symbol:          symbol,
		Name:            r.Price.LongName,
		BusinessSummary: r.AssetProfile.LongBusinessSummary,
		Industry:        r.AssetProfile.Industry,
		Sector:          r.AssetProfile.Sector,
	}
	if profile.Name == "" {
		profile.Name = r.Price.ShortName
	}
	for _, o := range r.AssetProfile.CompanyOfficers {
		profile.Officers = append(profile.Officers, model.Officer{Name: o.Name, Title: o.Title})
	}
	return profile, nil
}
