package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// ReportEntry is one watchlist symbol's outcome in a scheduled report.
type ReportEntry struct {
	Symbol string
	Result *model.AnalysisResult
	Err    error
}

var trendIcons = map[model.Trend]string{
	model.TrendBullish: "🟢",
	model.TrendBearish: "🔴",
	model.TrendNeutral: "⚪",
}

// FormatAnalysis formats a single analysis into a Telegram message.
func FormatAnalysis(res *model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(res.Symbol), res.AsOf.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("Close: %.2f (%+.2f, %+.2f%% since %s)\n",
		res.LastClose, res.PriceChange, res.PriceChangePct, res.ReferenceDate.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("SMA50: %s | SMA200: %s\n", orNA(res.SMA50, "%.2f"), orNA(res.SMA200, "%.2f")))
	b.WriteString(fmt.Sprintf("EMA20: %s | RSI14: %s\n", orNA(res.EMA20, "%.2f"), orNA(res.RSI14, "%.1f")))
	b.WriteString(fmt.Sprintf("Volatility: %s (%s)\n", orNA(res.Volatility, "%.2f%%"), res.VolatilityLevel))
	b.WriteString(fmt.Sprintf("Range (%d bars): %.2f ~ %.2f, at %.0f%%\n\n",
		res.RangeWindow, res.RecentLow, res.RecentHigh, res.RangePosition*100))

	b.WriteString(fmt.Sprintf("%s <b>Trend: %s</b>\n", trendIcons[res.Trend], res.Trend))
	b.WriteString(html.EscapeString(res.Narrative))
	if res.Considerations != "" {
		b.WriteString("\n\n💡 ")
		b.WriteString(html.EscapeString(res.Considerations))
	}
	return b.String()
}

// FormatWatchlistReport formats the scheduled report, one line per symbol.
func FormatWatchlistReport(entries []ReportEntry, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>StockLens watchlist</b> | %s\n\n", at.Format(model.DateLayout)))

	failed := 0
	for _, e := range entries {
		sym := html.EscapeString(e.Symbol)
		if e.Err != nil || e.Result == nil {
			failed++
			b.WriteString(fmt.Sprintf("⚠️ %s: unavailable\n", sym))
			continue
		}
		r := e.Result
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f (%+.2f%%) %s, vol %s\n",
			trendIcons[r.Trend], sym, r.LastClose, r.PriceChangePct, r.Trend, orNA(r.Volatility, "%.1f%%")))
	}
	if failed > 0 {
		b.WriteString(fmt.Sprintf("\n%d of %d symbols failed, see logs.", failed, len(entries)))
	}
	return b.String()
}

// FormatWatchlist lists the configured symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "📋 Watchlist is empty."
	}
	return "📋 <b>Watchlist</b>\n" + html.EscapeString(strings.Join(symbols, ", "))
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "🤖 <b>StockLens commands</b>\n\n" +
		"/analyze SYMBOL - analyze the last year of SYMBOL\n" +
		"/watchlist - show the watchlist\n" +
		"/report - run the watchlist report now\n" +
		"/help - show this message"
}

func orNA(v null.Float, format string) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Float64)
}
