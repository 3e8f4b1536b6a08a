package analytics

import (
	"errors"

	"StockLens/internal/calculator"
)

// Options holds the policy knobs of the engine. Windows are counted in bars.
type Options struct {
	// RangeWindow bounds the recent high/low scan (52 weeks by default).
	RangeWindow int `yaml:"range_window"`
	// VolatilityWindow bounds the returns used for volatility; 0 means the full series.
	VolatilityWindow int `yaml:"volatility_window"`
	// AnnualizationFactor scales daily volatility to a yearly figure.
	AnnualizationFactor int `yaml:"annualization_factor"`
	// HighVolatility and LowVolatility are annualized percent thresholds.
	HighVolatility float64 `yaml:"high_volatility"`
	LowVolatility  float64 `yaml:"low_volatility"`
}

// DefaultOptions mirrors the behaviour of the original analysis service.
func DefaultOptions() Options {
	return Options{
		RangeWindow:         calculator.TradingDaysPerYear,
		VolatilityWindow:    0,
		AnnualizationFactor: calculator.TradingDaysPerYear,
		HighVolatility:      30,
		LowVolatility:       15,
	}
}

// Validate checks that the options describe a usable policy.
func (o Options) Validate() error {
	if o.RangeWindow <= 0 {
		return errors.New("range_window must be positive")
	}
	if o.VolatilityWindow < 0 {
		return errors.New("volatility_window must not be negative")
	}
	if o.VolatilityWindow == 1 {
		return errors.New("volatility_window needs at least 2 bars")
	}
	if o.AnnualizationFactor <= 0 {
		return errors.New("annualization_factor must be positive")
	}
	if o.LowVolatility < 0 || o.LowVolatility >= o.HighVolatility {
		return errors.New("low_volatility must be non-negative and below high_volatility")
	}
	return nil
}
