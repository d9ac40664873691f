package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dafibh/ledger/internal/client"
)

const barWidth = 30

var (
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	barFillStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	barOverStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
)

// progressBar draws width cells filled in proportion to percent (0-100)
func progressBar(percent float64, over bool, width int) string {
	filled := int(math.Round(percent / 100 * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	style := barFillStyle
	if over {
		style = barOverStyle
	}
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func renderView(v client.View) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Budget Ledger") + "\n\n")
	b.WriteString("  " + labelStyle.Render("Budget") + valueStyle.Render(v.Budget) + "\n")
	b.WriteString("  " + labelStyle.Render("Spent") + valueStyle.Render(v.TotalExpenses) + "\n")

	remaining := valueStyle.Render(v.Remaining)
	if v.OverBudget {
		remaining = errorStyle.Render(v.Remaining + "  over budget")
	}
	b.WriteString("  " + labelStyle.Render("Remaining") + remaining + "\n\n")

	b.WriteString("  " + progressBar(v.ProgressWidth, v.OverBudget, barWidth))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" %3.0f%%", v.ProgressWidth)) + "\n\n")

	b.WriteString(renderRows(v))

	if v.Notice != "" {
		b.WriteString("\n  " + noticeStyle.Render("! "+v.Notice) + "\n")
	}
	return b.String()
}

func renderRows(v client.View) string {
	if len(v.Rows) == 0 {
		return "  " + mutedStyle.Render(v.EmptyText) + "\n"
	}

	itemWidth := 0
	for _, row := range v.Rows {
		w := lipgloss.Width(row.Item)
		if row.Badge != "" {
			w += len(row.Badge) + 1
		}
		if w > itemWidth {
			itemWidth = w
		}
	}

	var b strings.Builder
	for _, row := range v.Rows {
		item := valueStyle.Render(row.Item)
		w := lipgloss.Width(row.Item)
		if row.Badge != "" {
			item += " " + badgeStyle.Render(row.Badge)
			w += len(row.Badge) + 1
		}
		pad := strings.Repeat(" ", itemWidth-w)
		b.WriteString(fmt.Sprintf("  %s%s  %s  %s\n",
			item, pad,
			mutedStyle.Render(fmt.Sprintf("%-16s", row.Date)),
			errorStyle.Render(row.Amount)))
	}
	return b.String()
}
