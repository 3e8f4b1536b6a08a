package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/model"
)

// referenceLookbackDays covers weekends and market holidays before the window.
const referenceLookbackDays = 10

// Collector validates requests and assembles price series from a Fetcher.
type Collector struct {
	Fetcher Fetcher
	logger  *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, logger: logger}
}

// Series fetches the daily bars dated start..end inclusive, plus the last bar
// before start as the reference bar when the source has one.
func (c *Collector) Series(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	start, end = dateOf(start), dateOf(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	var window, lookback []model.PriceBar
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bars, err := c.Fetcher.FetchHistory(gctx, symbol, start, end.AddDate(0, 0, 1))
		if err != nil {
			return errors.Wrapf(err, "fetch %s history from %s", symbol, c.Fetcher.Name())
		}
		window = bars
		return nil
	})
	g.Go(func() error {
		bars, err := c.Fetcher.FetchHistory(gctx, symbol, start.AddDate(0, 0, -referenceLookbackDays), start)
		if err != nil {
			c.logger.Warn("reference bar lookup failed",
				zap.String("symbol", symbol), zap.Error(err))
			return nil
		}
		lookback = bars
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	window = normalizeBars(window)
	if len(window) == 0 {
		return nil, errors.Wrapf(ErrNoData, "%s between %s and %s",
			symbol, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	series := &model.PriceSeries{
		Symbol:    symbol,
		Bars:      window,
		Start:     start,
		End:       end,
		FetchedAt: time.Now(),
	}
	lookback = normalizeBars(lookback)
	for i := len(lookback) - 1; i >= 0; i-- {
		if lookback[i].Time.Before(window[0].Time) {
			ref := lookback[i]
			series.Reference = &ref
			break
		}
	}

	c.logger.Debug("series collected",
		zap.String("symbol", symbol),
		zap.Int("bars", len(window)),
		zap.Bool("reference", series.Reference != nil))
	return series, nil
}

// Quote returns the live quote for symbol.
func (c *Collector) Quote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s quote from %s", symbol, c.Fetcher.Name())
	}
	if !q.Price.Valid {
		return nil, errors.Wrapf(ErrNoData, "%s quote has no price", symbol)
	}
	return q, nil
}

// Profile returns company metadata for symbol.
func (c *Collector) Profile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	p, err := c.Fetcher.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s profile from %s", symbol, c.Fetcher.Name())
	}
	return p, nil
}

// NewFetcher selects a Fetcher by source name: "yahoo", "rest" or "mock".
func NewFetcher(source, baseURL, apiKey, proxyURL string, retries int) (Fetcher, error) {
	switch source {
	case "", "yahoo":
		return NewYahooFetcher(baseURL, proxyURL, retries), nil
	case "rest":
		if baseURL == "" {
			return nil, errors.New("rest data source requires base_url")
		}
		return NewRESTFetcher(baseURL, apiKey, proxyURL, retries), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, errors.Errorf("unknown data source %q", source)
	}
}
