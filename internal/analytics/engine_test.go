package analytics

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func makeSeries(closes ...float64) *model.PriceSeries {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func risingCloses(n int, from, to float64) []float64 {
	closes := make([]float64, n)
	for i := range n {
		closes[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return closes
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultOptions())
	require.NoError(t, err)
	return e
}

func TestAnalyze_ThreeBarExample(t *testing.T) {
	res, err := newEngine(t).Analyze("TEST", makeSeries(100, 102, 101))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.PriceChange, 1e-12)
	assert.InDelta(t, 1.0, res.PriceChangePct, 1e-12)
	assert.Equal(t, day0, res.ReferenceDate)
	assert.Equal(t, day0.AddDate(0, 0, 2), res.AsOf)
	assert.False(t, res.SMA50.Valid)
	assert.False(t, res.SMA200.Valid)
	assert.False(t, res.EMA20.Valid)
	assert.False(t, res.RSI14.Valid)
	require.True(t, res.Volatility.Valid)
	assert.Greater(t, res.Volatility.Float64, 0.0)
	assert.Equal(t, model.TrendNeutral, res.Trend)
	assert.Contains(t, res.Narrative, "insufficient history for SMA-200 (3 of 200 bars)")
	assert.Contains(t, res.Narrative, "Insufficient history for SMA-50 (3 of 50 bars)")
	assert.Equal(t, 3, res.RangeWindow)
	assert.InDelta(t, 102*1.01, res.RecentHigh, 1e-9)
	assert.InDelta(t, 100*0.99, res.RecentLow, 1e-9)
}

func TestAnalyze_RisingSeriesIsBullish(t *testing.T) {
	closes := risingCloses(252, 100, 200)
	res, err := newEngine(t).Analyze("TEST", makeSeries(closes...))
	require.NoError(t, err)

	require.True(t, res.SMA50.Valid)
	require.True(t, res.SMA200.Valid)
	assert.InDelta(t, mean(closes[len(closes)-50:]), res.SMA50.Float64, 1e-9)
	assert.InDelta(t, mean(closes[len(closes)-200:]), res.SMA200.Float64, 1e-9)
	assert.Greater(t, res.SMA50.Float64, 185.0)
	assert.Less(t, res.SMA50.Float64, 200.0)
	assert.Greater(t, res.SMA50.Float64, res.SMA200.Float64)
	assert.Greater(t, res.PriceChangePct, 0.0)
	assert.Equal(t, model.TrendBullish, res.Trend)
	assert.Equal(t, 100.0, res.RSI14.Float64)
	assert.True(t, res.EMA20.Valid)
	assert.Contains(t, res.Considerations, "entry points near recent highs")
}

func TestAnalyze_FallingSeriesIsBearish(t *testing.T) {
	res, err := newEngine(t).Analyze("TEST", makeSeries(risingCloses(260, 200, 100)...))
	require.NoError(t, err)
	assert.Equal(t, model.TrendBearish, res.Trend)
	assert.Less(t, res.PriceChange, 0.0)
	assert.Contains(t, res.Narrative, "down 100.00 (-50.00%)")
	assert.Contains(t, res.Considerations, "exit points near recent lows")
}

func TestAnalyze_SMA200Property(t *testing.T) {
	for _, n := range []int{200, 201, 333} {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 50 + 10*math.Sin(float64(i)/7) + float64(i%5)
		}
		res, err := newEngine(t).Analyze("TEST", makeSeries(closes...))
		require.NoError(t, err)
		require.True(t, res.SMA200.Valid, "n=%d", n)
		assert.InDelta(t, mean(closes[n-200:]), res.SMA200.Float64, 1e-9, "n=%d", n)
	}
}

func TestAnalyze_ShortSeriesHasNoAverages(t *testing.T) {
	for _, n := range []int{1, 2, 49} {
		res, err := newEngine(t).Analyze("TEST", makeSeries(risingCloses(n+1, 10, 20)[:n]...))
		require.NoError(t, err)
		assert.False(t, res.SMA50.Valid, "n=%d", n)
		assert.False(t, res.SMA200.Valid, "n=%d", n)
	}
}

func TestAnalyze_Volatility(t *testing.T) {
	res, err := newEngine(t).Analyze("TEST", makeSeries(100))
	require.NoError(t, err)
	assert.False(t, res.Volatility.Valid)
	assert.Equal(t, model.VolatilityUnknown, res.VolatilityLevel)
	assert.Contains(t, res.Narrative, "Volatility is unavailable")
	assert.Contains(t, res.Narrative, "unchanged from 100.00")

	res, err = newEngine(t).Analyze("TEST", makeSeries(100, 100, 100))
	require.NoError(t, err)
	require.True(t, res.Volatility.Valid)
	assert.Equal(t, 0.0, res.Volatility.Float64)
	assert.Equal(t, model.VolatilityLow, res.VolatilityLevel)

	res, err = newEngine(t).Analyze("TEST", makeSeries(100, 110, 95, 120, 90))
	require.NoError(t, err)
	require.True(t, res.Volatility.Valid)
	assert.Equal(t, model.VolatilityHigh, res.VolatilityLevel)
}

func TestAnalyze_VolatilityWindow(t *testing.T) {
	opts := DefaultOptions()
	opts.VolatilityWindow = 3
	e, err := NewEngine(opts)
	require.NoError(t, err)

	// Only the last three closes are flat.
	res, err := e.Analyze("TEST", makeSeries(50, 120, 80, 100, 100, 100))
	require.NoError(t, err)
	require.True(t, res.Volatility.Valid)
	assert.Equal(t, 0.0, res.Volatility.Float64)
}

func TestAnalyze_ReferenceBar(t *testing.T) {
	series := makeSeries(102, 101)
	series.Reference = &model.PriceBar{Time: day0.AddDate(0, 0, -1), Close: 100}

	res, err := newEngine(t).Analyze("TEST", series)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.PriceChange, 1e-12)
	assert.Equal(t, day0.AddDate(0, 0, -1), res.ReferenceDate)
	assert.Equal(t, 100.0, res.ReferenceClose)
	assert.Equal(t, 2, res.Bars)
}

func TestAnalyze_Failures(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name   string
		series func() *model.PriceSeries
		target error
		code   Code
		index  int
	}{
		{
			name:   "nil series",
			series: func() *model.PriceSeries { return nil },
			target: ErrEmptySeries,
			code:   CodeEmptySeries,
		},
		{
			name:   "no bars",
			series: func() *model.PriceSeries { return &model.PriceSeries{Symbol: "TEST"} },
			target: ErrEmptySeries,
			code:   CodeEmptySeries,
		},
		{
			name: "zero close",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101, 102)
				s.Bars[1].Close = 0
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  1,
		},
		{
			name: "NaN close",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101, 102)
				s.Bars[2].Close = math.NaN()
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  2,
		},
		{
			name: "duplicate date",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101, 102)
				s.Bars[2].Time = s.Bars[1].Time
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  2,
		},
		{
			name: "negative volume",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101)
				s.Bars[0].Volume = -1
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  0,
		},
		{
			name: "inverted high and low",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101)
				s.Bars[1].High, s.Bars[1].Low = 90, 110
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  1,
		},
		{
			name: "high below close",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101, 102)
				s.Bars[2].High = 101
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  2,
		},
		{
			name: "low above close",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101)
				s.Bars[0].Low = 100.5
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  0,
		},
		{
			name: "subnormal reference close",
			series: func() *model.PriceSeries {
				s := makeSeries(1e10, 1e10)
				s.Reference = &model.PriceBar{Time: day0.AddDate(0, 0, -1), Close: 1e-310}
				return s
			},
			target: ErrDivisionByZero,
			code:   CodeDivisionByZero,
		},
		{
			name: "averages overflow",
			series: func() *model.PriceSeries {
				s := makeSeries(risingCloses(60, 1.7e308, 1.7e308)...)
				for i := range s.Bars {
					s.Bars[i].High, s.Bars[i].Low = 0, 0
				}
				return s
			},
			target: ErrOverflow,
			code:   CodeOverflow,
		},
		{
			name: "zero reference close",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101)
				s.Reference = &model.PriceBar{Time: day0.AddDate(0, 0, -1), Close: 0}
				return s
			},
			target: ErrDivisionByZero,
			code:   CodeDivisionByZero,
		},
		{
			name: "reference inside window",
			series: func() *model.PriceSeries {
				s := makeSeries(100, 101)
				s.Reference = &model.PriceBar{Time: day0, Close: 99}
				return s
			},
			target: ErrInvalidBar,
			code:   CodeInvalidBar,
			index:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Analyze("TEST", tt.series())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)

			code, ok := CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, code)

			if tt.code == CodeInvalidBar {
				var ae *Error
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, tt.index, ae.Index)
			}
		})
	}
}

func TestAnalyze_DeterministicAndConcurrent(t *testing.T) {
	e := newEngine(t)
	series := makeSeries(risingCloses(220, 80, 120)...)
	want, err := e.Analyze("TEST", series)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*model.AnalysisResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Analyze("TEST", series)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, want, got)
	}
}

func TestCodeOf_ForeignError(t *testing.T) {
	_, ok := CodeOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestNewEngine_RejectsBadOptions(t *testing.T) {
	mutations := map[string]func(*Options){
		"zero range window":       func(o *Options) { o.RangeWindow = 0 },
		"negative vol window":     func(o *Options) { o.VolatilityWindow = -1 },
		"single bar vol window":   func(o *Options) { o.VolatilityWindow = 1 },
		"zero annualization":      func(o *Options) { o.AnnualizationFactor = 0 },
		"inverted vol thresholds": func(o *Options) { o.LowVolatility, o.HighVolatility = 40, 20 },
	}
	for name, mutate := range mutations {
		opts := DefaultOptions()
		mutate(&opts)
		_, err := NewEngine(opts)
		assert.Error(t, err, name)
	}
}
