package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/types"
)

// MaxTradeRows caps the trades listed by Backtest. Older trades are summarized.
const MaxTradeRows = 20

const simulatedNotice = "⚠ built from simulated data, not market prices"

type row struct {
	label string
	value string
}

func block(rows []row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(r.label), r.value))
	}

	return strings.Join(lines, "\n")
}

func render(title string, source types.DataSource, sections ...string) string {
	parts := []string{TitleStyle.Render(title)}

	if source.IsSimulated() {
		parts = append(parts, WarningStyle.Render(simulatedNotice))
	}

	parts = append(parts, sections...)

	return BoxStyle.Render(strings.Join(parts, "\n")) + "\n"
}

// Analysis renders a trend analysis.
func Analysis(result types.MarketAnalysisResult) string {
	title := "Trend analysis"
	if result.Symbol != "" {
		title += " · " + result.Symbol
	}

	rows := []row{
		{"Trend", trendStyle(result.Trend).Render(strings.ToUpper(string(result.Trend)))},
		{"Confidence", signedStyle(result.Confidence).Render(fmt.Sprintf("%+.2f", result.Confidence))},
		{fmt.Sprintf("MA(%d)", result.WindowSize), FormatPriceWithArrow(result.CurrentMA, result.PreviousMA)},
		{"Previous MA", fmt.Sprintf("%.4f", result.PreviousMA)},
		{"Difference", fmt.Sprintf("%+.4f", result.Difference)},
	}

	if rsi := result.Indicators.RSI; rsi != nil {
		rows = append(rows, row{"RSI", fmt.Sprintf("%.2f", *rsi)})
	} else {
		rows = append(rows, row{"RSI", HelpStyle.Render("n/a")})
	}

	if macd := result.Indicators.MACD; macd != nil {
		rows = append(rows, row{"MACD", fmt.Sprintf("%.4f (signal %.4f, hist %+.4f)", macd.MACD, macd.Signal, macd.Histogram)})
	} else {
		rows = append(rows, row{"MACD", HelpStyle.Render("n/a")})
	}

	if bb := result.Indicators.BollingerBands; bb != nil {
		rows = append(rows, row{"Bollinger", fmt.Sprintf("%.4f / %.4f / %.4f (bw %.4f)", bb.Lower, bb.Middle, bb.Upper, bb.Bandwidth)})
	} else {
		rows = append(rows, row{"Bollinger", HelpStyle.Render("n/a")})
	}

	if !result.AnalyzedAt.IsZero() {
		rows = append(rows, row{"Analyzed at", HelpStyle.Render(result.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))})
	}

	return render(title, result.Source, block(rows))
}

// Backtest renders a backtest summary and its most recent trades.
func Backtest(result types.BacktestResult) string {
	title := "Backtest"
	if result.Strategy != "" {
		title += " · " + result.Strategy
	}

	if result.Symbol != "" {
		title += " · " + result.Symbol
	}

	summary := block([]row{
		{"Initial capital", fmt.Sprintf("%.2f", result.InitialCapital)},
		{"Final capital", fmt.Sprintf("%.2f", result.FinalCapital)},
		{"Total return", signedStyle(result.TotalReturn).Render(fmt.Sprintf("%+.2f%%", result.TotalReturn))},
		{"Trades", fmt.Sprintf("%d (%d won, %d lost)", result.TotalTrades, result.WinningTrades, result.LosingTrades)},
		{"Win rate", fmt.Sprintf("%.2f%%", result.WinRate)},
		{"Max drawdown", fmt.Sprintf("%.2f%%", result.MaxDrawdown)},
		{"Fees", fmt.Sprintf("%.2f", result.TotalFees)},
	})

	if len(result.Trades) == 0 {
		return render(title, result.Source, summary, "", HelpStyle.Render("no trades"))
	}

	trades := result.Trades
	skipped := 0

	if len(trades) > MaxTradeRows {
		skipped = len(trades) - MaxTradeRows
		trades = trades[skipped:]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Time", "Action", "Price", "Fee", "Profit")

	for _, trade := range trades {
		profit := ""
		if trade.Action != types.TradeActionBuy {
			profit = fmt.Sprintf("%+.2f", trade.Profit)
		}

		t.Row(
			trade.Timestamp.Format("2006-01-02 15:04"),
			string(trade.Action),
			fmt.Sprintf("%.4f", trade.Price),
			fmt.Sprintf("%.2f", trade.Fee),
			profit,
		)
	}

	sections := []string{summary, "", t.Render()}
	if skipped > 0 {
		sections = append(sections, HelpStyle.Render(fmt.Sprintf("%d earlier trades not shown", skipped)))
	}

	return render(title, result.Source, sections...)
}

// Sentiment renders an aggregated sentiment.
func Sentiment(result types.SentimentResult) string {
	rows := []row{
		{"Label", sentimentStyle(result.Label).Render(strings.ToUpper(string(result.Label)))},
		{"Overall", signedStyle(result.OverallSentiment).Render(fmt.Sprintf("%+.4f", result.OverallSentiment))},
		{"Confidence", fmt.Sprintf("%.2f", result.Confidence)},
		{"Sources", fmt.Sprintf("%d", result.SampleSize)},
		{"Bullish", listOrNone(result.BullishSources)},
		{"Bearish", listOrNone(result.BearishSources)},
	}

	return render("Sentiment", types.DataSourceReal, block(rows))
}

// Indicators renders the latest readings of a series.
func Indicators(symbol string, source types.DataSource, readings []indicator.Reading) string {
	title := "Indicators"
	if symbol != "" {
		title += " · " + symbol
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Indicator", "Value", "Signal", "Detail")

	for _, reading := range readings {
		if reading.Error != "" {
			t.Row(string(reading.Indicator), "-", "-", HelpStyle.Render(reading.Error))

			continue
		}

		t.Row(string(reading.Indicator), fmt.Sprintf("%.4f", reading.Value), string(reading.Signal), reading.Reason)
	}

	return render(title, source, t.Render())
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return HelpStyle.Render("none")
	}

	return strings.Join(items, ", ")
}
