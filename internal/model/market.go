package model

import "time"

// DateLayout is the calendar date format used on every external surface.
const DateLayout = "2006-01-02"

// PriceBar represents a single daily candlestick bar.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries holds one symbol's daily bars over a requested date range.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
	// Reference is the bar immediately preceding Bars, when the data source had one.
	Reference *PriceBar
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}

// Closes returns the closing prices of the series in order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. The series must not be empty.
func (s *PriceSeries) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}
