package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type stockDataResponse struct {
	Symbol           string      `json:"symbol"`
	MarketState      null.String `json:"market_state"`
	CurrentPrice     null.Float  `json:"current_price"`
	PercentageChange null.Float  `json:"percentage_change"`
	OpenPrice        null.Float  `json:"open_price"`
	HighPrice        null.Float  `json:"high_price"`
	LowPrice         null.Float  `json:"low_price"`
	Volume           null.Int    `json:"volume"`
	PreviousClose    null.Float  `json:"previous_close"`
}

type historicalDataPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type historicalDataResponse struct {
	Symbol string                `json:"symbol"`
	Data   []historicalDataPoint `json:"data"`
}

type officerResponse struct {
	Name  null.String `json:"name"`
	Title null.String `json:"title"`
}

type companyInfoResponse struct {
	Symbol          string            `json:"symbol"`
	CompanyName     null.String       `json:"company_name"`
	BusinessSummary null.String       `json:"business_summary"`
	Industry        null.String       `json:"industry"`
	Sector          null.String       `json:"sector"`
	Officers        []officerResponse `json:"officers"`
}

type analysisMetrics struct {
	PriceChangeAbsolute float64    `json:"price_change_absolute"`
	PriceChangePercent  float64    `json:"price_change_percent"`
	Volatility          null.Float `json:"volatility"`
	SMA50               null.Float `json:"sma_50"`
	SMA200              null.Float `json:"sma_200"`
	EMA20               null.Float `json:"ema_20"`
	RSI14               null.Float `json:"rsi_14"`
	RecentHigh          float64    `json:"recent_high"`
	RecentLow           float64    `json:"recent_low"`
	RangePosition       float64    `json:"range_position"`
}

type analysisInsights struct {
	TrendDirection           model.Trend           `json:"trend_direction"`
	TrendReason              string                `json:"trend_reason"`
	VolatilityAssessment     model.VolatilityLevel `json:"volatility_assessment"`
	InvestmentConsiderations string                `json:"investment_considerations"`
	Narrative                string                `json:"narrative"`
}

type analysisResponse struct {
	Symbol        string           `json:"symbol"`
	AsOf          string           `json:"as_of"`
	ReferenceDate string           `json:"reference_date"`
	Bars          int              `json:"bars"`
	Metrics       analysisMetrics  `json:"metrics"`
	Insights      analysisInsights `json:"insights"`
}

type recordedAnalysis struct {
	RunID      string           `json:"run_id"`
	Trigger    string           `json:"trigger"`
	RecordedAt time.Time        `json:"recorded_at"`
	StartDate  null.String      `json:"start_date"`
	EndDate    null.String      `json:"end_date"`
	Analysis   analysisResponse `json:"analysis"`
}

type analysesResponse struct {
	Symbol   string             `json:"symbol"`
	Analyses []recordedAnalysis `json:"analyses"`
}

// round2 leaves non-finite values untouched; decimal cannot represent them.
func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// round2Null maps non-finite values to null.
func round2Null(v null.Float) null.Float {
	if !v.Valid || math.IsInf(v.Float64, 0) || math.IsNaN(v.Float64) {
		return null.Float{}
	}
	return null.FloatFrom(round2(v.Float64))
}

func newStockDataResponse(q *model.Quote) stockDataResponse {
	return stockDataResponse{
		Symbol:           q.Symbol,
		MarketState:      null.NewString(q.MarketState, q.MarketState != ""),
		CurrentPrice:     q.Price,
		PercentageChange: round2Null(q.ChangePct),
		OpenPrice:        q.Open,
		HighPrice:        q.High,
		LowPrice:         q.Low,
		Volume:           q.Volume,
		PreviousClose:    q.PreviousClose,
	}
}

func newHistoricalDataResponse(s *model.PriceSeries) historicalDataResponse {
	points := make([]historicalDataPoint, len(s.Bars))
	for i, b := range s.Bars {
		points[i] = historicalDataPoint{
			Date:   b.Time.Format(model.DateLayout),
			Open:   round2(b.Open),
			High:   round2(b.High),
			Low:    round2(b.Low),
			Close:  round2(b.Close),
			Volume: b.Volume,
		}
	}
	return historicalDataResponse{Symbol: s.Symbol, Data: points}
}

func optionalString(s string) null.String {
	return null.NewString(s, s != "")
}

func newCompanyInfoResponse(p *model.CompanyProfile) companyInfoResponse {
	officers := make([]officerResponse, len(p.Officers))
	for i, o := range p.Officers {
		officers[i] = officerResponse{Name: optionalString(o.Name), Title: optionalString(o.Title)}
	}
	return companyInfoResponse{
		Symbol:          p.Symbol,
		CompanyName:     optionalString(p.Name),
		BusinessSummary: optionalString(p.BusinessSummary),
		Industry:        optionalString(p.Industry),
		Sector:          optionalString(p.Sector),
		Officers:        officers,
	}
}

func newAnalysisResponse(res *model.AnalysisResult) analysisResponse {
	return analysisResponse{
		Symbol:        res.Symbol,
		AsOf:          res.AsOf.Format(model.DateLayout),
		ReferenceDate: res.ReferenceDate.Format(model.DateLayout),
		Bars:          res.Bars,
		Metrics: analysisMetrics{
			PriceChangeAbsolute: round2(res.PriceChange),
			PriceChangePercent:  round2(res.PriceChangePct),
			Volatility:          round2Null(res.Volatility),
			SMA50:               round2Null(res.SMA50),
			SMA200:              round2Null(res.SMA200),
			EMA20:               round2Null(res.EMA20),
			RSI14:               round2Null(res.RSI14),
			RecentHigh:          round2(res.RecentHigh),
			RecentLow:           round2(res.RecentLow),
			RangePosition:       round2(res.RangePosition),
		},
		Insights: analysisInsights{
			TrendDirection:           res.Trend,
			TrendReason:              res.TrendReason,
			VolatilityAssessment:     res.VolatilityLevel,
			InvestmentConsiderations: res.Considerations,
			Narrative:                res.Narrative,
		},
	}
}

func newAnalysesResponse(symbol string, recs []*recorder.AnalysisRecord) analysesResponse {
	out := analysesResponse{Symbol: symbol, Analyses: make([]recordedAnalysis, 0, len(recs))}
	for _, rec := range recs {
		out.Analyses = append(out.Analyses, recordedAnalysis{
			RunID:      rec.RunID.String(),
			Trigger:    rec.Trigger,
			RecordedAt: rec.RecordedAt.UTC(),
			StartDate:  optionalDate(rec.Start),
			EndDate:    optionalDate(rec.End),
			Analysis:   newAnalysisResponse(rec.Result),
		})
	}
	return out
}

func optionalDate(t time.Time) null.String {
	if t.IsZero() {
		return null.String{}
	}
	return null.StringFrom(t.Format(model.DateLayout))
}

// writeJSON encodes before writing the header so an unencodable value
// still produces an error envelope.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
