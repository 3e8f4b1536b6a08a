package calculator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DailyReturns returns the day-over-day simple returns (c[i]-c[i-1])/c[i-1].
// The result has len(closes)-1 entries.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return returns
}

// AnnualizedVolatility returns the population standard deviation of the
// returns over the trailing window closes, scaled by sqrt(annualization) and
// expressed in percent. A window of 0 uses the whole slice.
func AnnualizedVolatility(closes []float64, window, annualization int) (float64, error) {
	if window > 0 && len(closes) > window {
		closes = closes[len(closes)-window:]
	}
	if len(closes) < 2 {
		return 0, fmt.Errorf("volatility over %d prices: %w", len(closes), ErrInsufficientData)
	}
	std := stat.PopStdDev(DailyReturns(closes), nil)
	return std * math.Sqrt(float64(annualization)) * 100, nil
}
