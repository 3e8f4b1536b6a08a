package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(80)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(16)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	trendStyles = map[model.Trend]lipgloss.Style{
		model.TrendBullish: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		model.TrendBearish: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		model.TrendNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
	}
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func optional(v null.Float, format string) string {
	if !v.Valid {
		return mutedStyle.Render("n/a")
	}
	return fmt.Sprintf(format, v.Float64)
}

// renderAnalysis lays out an analysis for the terminal.
func renderAnalysis(res *model.AnalysisResult) string {
	title := titleStyle.Render(fmt.Sprintf("%s  %s", res.Symbol, res.AsOf.Format(model.DateLayout)))

	metrics := strings.Join([]string{
		row("Last close", fmt.Sprintf("%.2f", res.LastClose)),
		row("Change", fmt.Sprintf("%+.2f (%+.2f%%) since %s", res.PriceChange, res.PriceChangePct, res.ReferenceDate.Format(model.DateLayout))),
		row("SMA-50", optional(res.SMA50, "%.2f")),
		row("SMA-200", optional(res.SMA200, "%.2f")),
		row("EMA-20", optional(res.EMA20, "%.2f")),
		row("RSI-14", optional(res.RSI14, "%.1f")),
		row("Volatility", optional(res.Volatility, "%.2f%%")+" "+mutedStyle.Render(string(res.VolatilityLevel))),
		row("Recent range", fmt.Sprintf("%.2f ~ %.2f (%d bars)", res.RecentLow, res.RecentHigh, res.RangeWindow)),
		row("Trend", trendStyles[res.Trend].Render(string(res.Trend))+" "+mutedStyle.Render(res.TrendReason)),
	}, "\n")

	text := res.Narrative
	if res.Considerations != "" {
		text += "\n\n" + res.Considerations
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, boxStyle.Render(metrics), boxStyle.Render(text))
}
