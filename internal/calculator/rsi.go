package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
)

// CalculateRSI computes the Wilder-smoothed RSI at the last price.
// Requires at least period+1 prices. A flat series reports 50.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return 0, fmt.Errorf("RSI(%d) over %d prices: %w", period, len(closes), ErrInsufficientData)
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	values := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(closes)))
	if len(values) == 0 {
		return 0, fmt.Errorf("RSI(%d): %w", period, ErrInsufficientData)
	}

	// No gains and no losses divide 0 by 0.
	last := values[len(values)-1]
	if math.IsNaN(last) {
		return 50.0, nil
	}
	return last, nil
}
