package calculator

import (
	"errors"
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when a window needs more bars than are available.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("SMA(%d) over %d prices: %w", period, len(prices), ErrInsufficientData)
	}
	return stat.Mean(prices[len(prices)-period:], nil), nil
}

// CalculateEMA returns the exponential moving average at the last price.
// The first value is seeded with the SMA of the first period prices.
func CalculateEMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("EMA(%d) over %d prices: %w", period, len(prices), ErrInsufficientData)
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	values := helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices)))
	if len(values) == 0 {
		return 0, fmt.Errorf("EMA(%d): %w", period, ErrInsufficientData)
	}
	return values[len(values)-1], nil
}
