package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Trend is the directional label derived from moving averages and price change.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// VolatilityLevel buckets annualized volatility.
type VolatilityLevel string

const (
	VolatilityLow      VolatilityLevel = "low"
	VolatilityModerate VolatilityLevel = "moderate"
	VolatilityHigh     VolatilityLevel = "high"
	VolatilityUnknown  VolatilityLevel = "unknown"
)

// AnalysisResult is the read-only summary derived from a PriceSeries.
// Metrics that need more history than the series provides are left null.
type AnalysisResult struct {
	Symbol string
	AsOf   time.Time
	Bars   int

	ReferenceDate  time.Time
	ReferenceClose float64
	LastClose      float64
	PriceChange    float64
	PriceChangePct float64

	SMA50      null.Float
	SMA200     null.Float
	EMA20      null.Float
	RSI14      null.Float
	Volatility null.Float // annualized, percent

	RecentHigh    float64
	RecentLow     float64
	RangeWindow   int     // bars actually scanned for RecentHigh/RecentLow
	RangePosition float64 // 0.0 ~ 1.0 within [RecentLow, RecentHigh]

	Trend           Trend
	TrendReason     string
	VolatilityLevel VolatilityLevel
	Narrative       string
	Considerations  string
}
