package analytics

import (
	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// classifyTrend maps the crossover and price change signals to a label.
// Every combination maps to exactly one label; missing averages yield neutral.
func classifyTrend(sma50, sma200 null.Float, changePct float64) (model.Trend, string) {
	switch {
	case !sma50.Valid || !sma200.Valid:
		return model.TrendNeutral, "not enough history to compare SMA-50 with SMA-200"
	case sma50.Float64 > sma200.Float64 && changePct > 0:
		return model.TrendBullish, "SMA-50 is above SMA-200 and the price rose over the period"
	case sma50.Float64 < sma200.Float64 && changePct < 0:
		return model.TrendBearish, "SMA-50 is below SMA-200 and the price fell over the period"
	default:
		return model.TrendNeutral, "the moving-average crossover and the price change disagree"
	}
}

// assessVolatility buckets annualized volatility using the engine thresholds.
func (e *Engine) assessVolatility(vol null.Float) model.VolatilityLevel {
	switch {
	case !vol.Valid:
		return model.VolatilityUnknown
	case vol.Float64 > e.opts.HighVolatility:
		return model.VolatilityHigh
	case vol.Float64 < e.opts.LowVolatility:
		return model.VolatilityLow
	default:
		return model.VolatilityModerate
	}
}
