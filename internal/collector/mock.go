package collector

import (
	"context"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Without Bars it generates one weekday bar per day around Price.
type MockFetcher struct {
	Price   float64
	Bars    []model.PriceBar
	Profile *model.CompanyProfile
	Err     error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) record() error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.Err
}

func (m *MockFetcher) FetchHistory(ctx context.Context, _ string, start, end time.Time) ([]model.PriceBar, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source := m.Bars
	if source == nil {
		source = generateMockBars(m.Price, start, end)
	}
	var bars []model.PriceBar
	for _, b := range source {
		if !b.Time.Before(start) && b.Time.Before(end) {
			bars = append(bars, b)
		}
	}
	return bars, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	prev := m.Price * 0.99
	return &model.Quote{
		Symbol:        symbol,
		MarketState:   "REGULAR",
		Price:         null.FloatFrom(m.Price),
		PreviousClose: null.FloatFrom(prev),
		ChangePct:     percentChange(null.FloatFrom(m.Price), null.FloatFrom(prev)),
		Open:          null.FloatFrom(prev),
		High:          null.FloatFrom(m.Price * 1.005),
		Low:           null.FloatFrom(prev * 0.995),
		Volume:        null.IntFrom(1000000),
		FetchedAt:     time.Now(),
	}, nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	if m.Profile != nil {
		return m.Profile, nil
	}
	return &model.CompanyProfile{
		Symbol:   symbol,
		Name:     symbol + " Inc.",
		Industry: "Testing",
		Sector:   "Technology",
	}, nil
}

// generateMockBars produces a gentle uptrend, one bar per weekday in [start, end).
func generateMockBars(basePrice float64, start, end time.Time) []model.PriceBar {
	var bars []model.PriceBar
	i := 0
	for d := dateOf(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.PriceBar{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
