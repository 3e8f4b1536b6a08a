package analytics

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

func buildNarrative(r *model.AnalysisResult) string {
	var b strings.Builder

	switch {
	case r.PriceChange > 0:
		fmt.Fprintf(&b, "%s closed at %.2f on %s, up %.2f (%+.2f%%) from %.2f on %s.",
			r.Symbol, r.LastClose, r.AsOf.Format(model.DateLayout), r.PriceChange, r.PriceChangePct,
			r.ReferenceClose, r.ReferenceDate.Format(model.DateLayout))
	case r.PriceChange < 0:
		fmt.Fprintf(&b, "%s closed at %.2f on %s, down %.2f (%+.2f%%) from %.2f on %s.",
			r.Symbol, r.LastClose, r.AsOf.Format(model.DateLayout), -r.PriceChange, r.PriceChangePct,
			r.ReferenceClose, r.ReferenceDate.Format(model.DateLayout))
	default:
		fmt.Fprintf(&b, "%s closed at %.2f on %s, unchanged from %.2f on %s.",
			r.Symbol, r.LastClose, r.AsOf.Format(model.DateLayout), r.ReferenceClose, r.ReferenceDate.Format(model.DateLayout))
	}

	b.WriteString(" ")
	b.WriteString(capitalize(describeAverage("SMA-50", r.SMA50, ShortWindow, r.Bars)))
	b.WriteString("; ")
	b.WriteString(describeAverage("SMA-200", r.SMA200, LongWindow, r.Bars))
	b.WriteString(".")

	if r.Volatility.Valid {
		fmt.Fprintf(&b, " Annualized volatility is %.2f%% (%s).", r.Volatility.Float64, r.VolatilityLevel)
	} else {
		b.WriteString(" Volatility is unavailable: at least 2 bars are required.")
	}

	fmt.Fprintf(&b, " Over the last %d sessions it traded between %.2f and %.2f and now sits %.0f%% of the way up that range.",
		r.RangeWindow, r.RecentLow, r.RecentHigh, r.RangePosition*100)

	fmt.Fprintf(&b, " The trend is %s: %s.", r.Trend, r.TrendReason)
	return b.String()
}

func describeAverage(name string, v null.Float, window, bars int) string {
	if !v.Valid {
		return fmt.Sprintf("insufficient history for %s (%d of %d bars)", name, bars, window)
	}
	return fmt.Sprintf("%s is %.2f", name, v.Float64)
}

// buildConsiderations produces the actionable note of the original service.
func buildConsiderations(r *model.AnalysisResult) string {
	action, level := "exit", "lows"
	if r.Trend == model.TrendBullish {
		action, level = "entry", "highs"
	}

	var risk string
	switch r.VolatilityLevel {
	case model.VolatilityLow:
		risk = "Long-term investors may find this stable"
	case model.VolatilityHigh:
		risk = "Short-term traders may capitalize on price swings"
	default:
		risk = "Balance risk with potential returns"
	}

	return fmt.Sprintf("The stock exhibits a %s trend with %s volatility. "+
		"Consider monitoring for %s points near recent %s (%.2f or %.2f). %s. "+
		"Always consult a financial advisor.",
		r.Trend, r.VolatilityLevel, action, level, r.RecentHigh, r.RecentLow, risk)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
