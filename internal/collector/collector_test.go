package collector

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockLens/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSeries_IncludesEndDateAndReference(t *testing.T) {
	m := &MockFetcher{Price: 100}
	c := NewCollector(m, zap.NewNop())

	// 2024-01-08 is a Monday; the preceding bar is Friday 2024-01-05.
	s, err := c.Series(context.Background(), "aapl", day("2024-01-08"), day("2024-01-12"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", s.Symbol)
	require.Len(t, s.Bars, 5)
	assert.Equal(t, day("2024-01-08"), s.Bars[0].Time)
	assert.Equal(t, day("2024-01-12"), s.Last().Time)
	require.NotNil(t, s.Reference)
	assert.Equal(t, day("2024-01-05"), s.Reference.Time)
	assert.Equal(t, 2, m.Calls())
}

func TestSeries_NoData(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, zap.NewNop())

	// A weekend has no bars.
	_, err := c.Series(context.Background(), "AAPL", day("2024-01-06"), day("2024-01-07"))
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestSeries_Validation(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, zap.NewNop())

	_, err := c.Series(context.Background(), "AA-PL", day("2024-01-08"), day("2024-01-12"))
	assert.True(t, errors.Is(err, ErrInvalidSymbol))

	_, err = c.Series(context.Background(), "AAPL", day("2024-01-12"), day("2024-01-08"))
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestSeries_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	c := NewCollector(&MockFetcher{Err: boom}, zap.NewNop())

	_, err := c.Series(context.Background(), "AAPL", day("2024-01-08"), day("2024-01-12"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "mock")
}

func TestSeries_NormalizesUnorderedBars(t *testing.T) {
	bars := []model.PriceBar{
		{Time: day("2024-01-10"), Open: 1, High: 1, Low: 1, Close: 12},
		{Time: day("2024-01-09"), Open: 1, High: 1, Low: 1, Close: 11},
		{Time: day("2024-01-09").Add(14 * time.Hour), Open: 1, High: 1, Low: 1, Close: 11.5},
		{Time: day("2024-01-08")},
	}
	c := NewCollector(&MockFetcher{Bars: bars}, zap.NewNop())

	s, err := c.Series(context.Background(), "AAPL", day("2024-01-08"), day("2024-01-10"))
	require.NoError(t, err)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, 11.5, s.Bars[0].Close)
	assert.Equal(t, 12.0, s.Bars[1].Close)
	assert.Nil(t, s.Reference)
}

func TestQuoteAndProfile(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 200}, nil)

	q, err := c.Quote(context.Background(), " msft ")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", q.Symbol)
	assert.Equal(t, 200.0, q.Price.Float64)
	assert.True(t, q.ChangePct.Valid)
	assert.InDelta(t, 1.0101, q.ChangePct.Float64, 1e-3)

	p, err := c.Profile(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT Inc.", p.Name)

	_, err = c.Profile(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidSymbol))
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher("", "", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", f.Name())

	_, err = NewFetcher("rest", "", "", "", 0)
	assert.Error(t, err)

	f, err = NewFetcher("rest", "http://localhost:9000", "k", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "rest", f.Name())

	_, err = NewFetcher("bloomberg", "", "", "", 0)
	assert.Error(t, err)
}
