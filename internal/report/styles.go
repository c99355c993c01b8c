// Package report renders analysis results for the terminal.
package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/market-analyzer/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	// LabelStyle for the left column of key/value blocks.
	LabelStyle = lipgloss.NewStyle().Width(18).Faint(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// WarningStyle flags results built from simulated data.
	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	RisingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	FallingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	NeutralStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// FormatPriceWithArrow formats a price with an arrow comparing it with the previous one.
func FormatPriceWithArrow(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

func trendStyle(trend types.Trend) lipgloss.Style {
	switch trend {
	case types.TrendRising:
		return RisingStyle
	case types.TrendFalling:
		return FallingStyle
	default:
		return NeutralStyle
	}
}

func sentimentStyle(label types.SentimentLabel) lipgloss.Style {
	switch label {
	case types.SentimentBullish:
		return RisingStyle
	case types.SentimentBearish:
		return FallingStyle
	default:
		return NeutralStyle
	}
}

func signedStyle(value float64) lipgloss.Style {
	switch {
	case value > 0:
		return RisingStyle
	case value < 0:
		return FallingStyle
	default:
		return NeutralStyle
	}
}
