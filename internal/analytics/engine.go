// Package analytics derives moving averages, volatility, recent extremes and a
// trend label from one symbol's daily price history.
//
// The engine is a pure function of its input: it performs no I/O, holds no
// mutable state and is safe for concurrent use.
package analytics

import (
	"fmt"

	"github.com/guregu/null/v6"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// Fixed indicator windows, in bars.
const (
	ShortWindow = 50
	LongWindow  = 200
	EMAWindow   = 20
	RSIPeriod   = 14
)

// Engine computes AnalysisResults under a fixed Options policy.
type Engine struct {
	opts Options
}

// NewEngine validates opts and returns an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Options returns the engine's policy.
func (e *Engine) Options() Options { return e.opts }

// Analyze computes the summary for series. Bars must be in strictly
// increasing date order; any malformed bar fails the whole analysis.
// Metrics without enough history are returned as null, not as errors.
func (e *Engine) Analyze(symbol string, series *model.PriceSeries) (*model.AnalysisResult, error) {
	if series == nil || len(series.Bars) == 0 {
		return nil, ErrEmptySeries
	}
	if err := validateBars(series.Bars); err != nil {
		return nil, err
	}
	ref, err := resolveReference(series)
	if err != nil {
		return nil, err
	}

	last := series.Last()
	closes := series.Closes()

	res := &model.AnalysisResult{
		Symbol:         symbol,
		AsOf:           last.Time,
		Bars:           len(series.Bars),
		ReferenceDate:  ref.Time,
		ReferenceClose: ref.Close,
		LastClose:      last.Close,
		PriceChange:    last.Close - ref.Close,
	}
	res.PriceChangePct = res.PriceChange / ref.Close * 100
	if !finite(res.PriceChangePct) {
		return nil, &Error{
			Code:   CodeDivisionByZero,
			Reason: fmt.Sprintf("reference close %g is too small for a finite price change", ref.Close),
		}
	}

	res.SMA50 = optional(calculator.CalculateSMA(closes, ShortWindow))
	res.SMA200 = optional(calculator.CalculateSMA(closes, LongWindow))
	res.EMA20 = optional(calculator.CalculateEMA(closes, EMAWindow))
	res.RSI14 = optional(calculator.CalculateRSI(closes, RSIPeriod))
	res.Volatility = optional(calculator.AnnualizedVolatility(closes, e.opts.VolatilityWindow, e.opts.AnnualizationFactor))

	high, low, scanned, err := calculator.TrailingRange(series.Bars, e.opts.RangeWindow)
	if err != nil {
		return nil, err
	}
	res.RecentHigh, res.RecentLow, res.RangeWindow = high, low, scanned
	// validateBars guarantees high >= low for every bar, so this cannot fail.
	res.RangePosition, _ = calculator.RangePosition(last.Close, high, low)
	if err := checkFinite(res); err != nil {
		return nil, err
	}

	res.Trend, res.TrendReason = classifyTrend(res.SMA50, res.SMA200, res.PriceChangePct)
	res.VolatilityLevel = e.assessVolatility(res.Volatility)
	res.Narrative = buildNarrative(res)
	res.Considerations = buildConsiderations(res)
	return res, nil
}

// optional turns an insufficient-history calculation into a null metric.
// Calculators only fail on missing history here since inputs are validated.
func optional(v float64, err error) null.Float {
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// checkFinite rejects results whose metrics overflowed on extreme but finite
// prices.
func checkFinite(res *model.AnalysisResult) error {
	metrics := []struct {
		name  string
		value null.Float
	}{
		{"sma_50", res.SMA50},
		{"sma_200", res.SMA200},
		{"ema_20", res.EMA20},
		{"rsi_14", res.RSI14},
		{"volatility", res.Volatility},
		{"range_position", null.FloatFrom(res.RangePosition)},
	}
	for _, m := range metrics {
		if m.value.Valid && !finite(m.value.Float64) {
			return overflow(m.name)
		}
	}
	return nil
}
