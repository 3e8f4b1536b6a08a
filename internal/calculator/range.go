package calculator

import (
	"errors"
	"math"

	"StockLens/internal/model"
)

// TradingDaysPerYear is the conventional 52-week window in daily bars.
const TradingDaysPerYear = 252

// TrailingRange scans the most recent window bars and returns the highest high
// and lowest low. Bars without a high or low fall back to their close.
// It also reports how many bars were scanned.
func TrailingRange(bars []model.PriceBar, window int) (high, low float64, scanned int, err error) {
	if len(bars) == 0 {
		return 0, 0, 0, errors.New("no bars provided")
	}
	if window <= 0 {
		return 0, 0, 0, errors.New("window must be positive")
	}
	n := len(bars)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		h, l := bars[i].High, bars[i].Low
		if h <= 0 {
			h = bars[i].Close
		}
		if l <= 0 {
			l = bars[i].Close
		}
		if h > high {
			high = h
		}
		if l < low {
			low = l
		}
	}
	return high, low, n - start, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
