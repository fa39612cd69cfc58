package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"TickerLens/internal/calculator"
	"TickerLens/internal/collector"
	"TickerLens/internal/dashboard"
	"TickerLens/internal/model"
)

// telegramPreviewRows is shorter than the web preview to fit a phone screen.
const telegramPreviewRows = 5

// FormatAnalysisReport formats a dashboard report into a Telegram HTML message.
func FormatAnalysisReport(r *dashboard.Report) string {
	var b strings.Builder

	name := html.EscapeString(r.CompanyName)
	if name == "" || r.CompanyName == r.Symbol {
		fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n", html.EscapeString(r.Symbol), r.GeneratedAt.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "📊 <b>%s</b> (%s) | %s\n", name, html.EscapeString(r.Symbol), r.GeneratedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Horizon: %d days | SMA %d | RSI %d\n\n",
		r.Config.DaysToAnalyze, r.Config.SMAWindow, r.Config.RSIWindow)

	if a := r.Assessment; a != nil {
		fmt.Fprintf(&b, "Close: %.2f %s\n", a.LastClose, html.EscapeString(r.Currency))
		fmt.Fprintf(&b, "SMA%d: %.2f (%+.1f%%)\n", r.Config.SMAWindow, a.LastSMA, a.SMADeviation)
		fmt.Fprintf(&b, "RSI%d: %.1f %s\n", r.Config.RSIWindow, a.LastRSI, zoneBadge(a.Zone))
		fmt.Fprintf(&b, "Period change: %+.1f%%\n", a.PeriodChange)
		fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(a.Commentary))
	}

	rows := r.Preview
	if len(rows) > telegramPreviewRows {
		rows = rows[len(rows)-telegramPreviewRows:]
	}
	if len(rows) > 0 {
		b.WriteString("\n<pre>")
		fmt.Fprintf(&b, "%-10s %9s %9s %6s\n", "Date", "Close", "SMA", "RSI")
		for _, row := range rows {
			fmt.Fprintf(&b, "%-10s %9.2f %9.2f %6.1f\n",
				row.Time.Format("2006-01-02"), row.Close, row.SMA, row.RSI)
		}
		b.WriteString("</pre>")
	}
	return b.String()
}

func zoneBadge(z model.RSIZone) string {
	switch z {
	case model.ZoneOverbought:
		return "🔴 overbought"
	case model.ZoneOversold:
		return "🟢 oversold"
	default:
		return "⚪ neutral"
	}
}

// FormatError turns a Build error into a short user-facing reply.
func FormatError(symbol string, err error) string {
	var ide *calculator.InsufficientDataError
	switch {
	case errors.Is(err, collector.ErrInvalidSymbol):
		return "Please provide a stock symbol, e.g. /analyze AAPL 90"
	case errors.Is(err, calculator.ErrDaysOutOfRange):
		return fmt.Sprintf("Days must be between %d and %d.",
			calculator.MinDaysToAnalyze, calculator.MaxDaysToAnalyze)
	case errors.Is(err, collector.ErrEmptySeries):
		return fmt.Sprintf("❌ %s: No data found. Please check the stock symbol.", html.EscapeString(symbol))
	case errors.As(err, &ide):
		return fmt.Sprintf("⚠️ %s: not enough history (%d bars, need %d).",
			html.EscapeString(symbol), ide.Have, ide.Need)
	default:
		return fmt.Sprintf("⚠️ %s: market data is unavailable right now, try again later.", html.EscapeString(symbol))
	}
}

// HelpText lists the bot commands.
func HelpText(defaultDays int) string {
	return fmt.Sprintf(`📖 <b>Commands</b>

/analyze SYMBOL [DAYS] - SMA and RSI report (days %d-%d, default %d)
/help - show this message`,
		calculator.MinDaysToAnalyze, calculator.MaxDaysToAnalyze, defaultDays)
}
