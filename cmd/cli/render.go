package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
)

// Theme colors (Flexoki Dark)
var (
	colorBorder    = lipgloss.Color("#282726")
	colorTextDim   = lipgloss.Color("#575653")
	colorTextMuted = lipgloss.Color("#6F6E69")
	colorText      = lipgloss.Color("#FFFCF0")
	colorAccent    = lipgloss.Color("#3AA99F")
	colorGreen     = lipgloss.Color("#879A39")
	colorOrange    = lipgloss.Color("#DA702C")
	colorRed       = lipgloss.Color("#D14D41")
	colorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left-aligned, the rest
// right-aligned.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}

	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, headerStyle))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		b.WriteString(line(row, valueStyle))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func renderStatus(s domain.ReportStatus) string {
	switch s {
	case domain.ReportStatusCompleted:
		return goodStyle.Render(string(s))
	case domain.ReportStatusFailed:
		return errorStyle.Render(string(s))
	case domain.ReportStatusGenerating:
		return infoStyle.Render(string(s))
	default:
		return mutedStyle.Render(string(s))
	}
}

func formatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", *v*100)
}

// renderReport renders a completed report's payload.
func renderReport(r *domain.Report) string {
	d := r.Data
	cur := d.Meta.Currency

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(RenderTitle(strings.ToUpper(d.Meta.Label)))
	b.WriteString("\n\n")

	b.WriteString(RenderTable(Table{
		Title:   "Totals",
		Headers: []string{"", cur},
		Rows: [][]string{
			{"Income", d.Totals.Income.StringFixed(2)},
			{"Expenses", d.Totals.Expenses.StringFixed(2)},
			{"Net", d.Totals.Net.StringFixed(2)},
			{"Savings rate", fmt.Sprintf("%.1f%%", d.Totals.SavingsRate*100)},
		},
	}))

	if len(d.Categories) > 0 {
		rows := make([][]string, 0, len(d.Categories))
		for _, c := range d.Categories {
			rows = append(rows, []string{
				c.CategoryName,
				string(c.Type),
				c.Amount.StringFixed(2),
				fmt.Sprintf("%.1f%%", c.Share*100),
				fmt.Sprintf("%d", c.TransactionCount),
				c.AverageMonthly.StringFixed(2),
				formatPercent(c.ChangePercent),
			})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable(Table{
			Title:   "Categories",
			Headers: []string{"Category", "Type", "Amount", "Share", "Txns", "Avg/month", "Change"},
			Rows:    rows,
		}))
	}

	n := d.LLM[r.Kind.Key()]
	if n == nil {
		return b.String()
	}

	if n.Summary != "" {
		b.WriteString("\n  " + headerStyle.Render("Summary") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(76).PaddingLeft(2).Render(n.Summary))
		b.WriteString("\n")
	}

	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Insights", n.Insights},
		{"Suggestions", n.Suggestions},
		{"Behavior patterns", n.BehaviorPatterns},
		{"Risks", n.Risks},
		{"Opportunities", n.Opportunities},
	} {
		if len(sec.items) == 0 {
			continue
		}
		b.WriteString("\n  " + headerStyle.Render(sec.title) + "\n")
		for _, item := range sec.items {
			b.WriteString("  " + dimStyle.Render("•") + " " + item + "\n")
		}
	}

	if len(n.BudgetSuggestions) > 0 {
		rows := make([][]string, 0, len(n.BudgetSuggestions))
		for _, s := range n.BudgetSuggestions {
			amount := ""
			switch {
			case s.Proposal != nil:
				amount = s.Proposal.Amount.StringFixed(2)
			case s.Adjustment != nil:
				amount = s.Adjustment.NewAmount.StringFixed(2)
			}
			linked := mutedStyle.Render("-")
			if s.BudgetID != nil {
				linked = *s.BudgetID
			}
			rows = append(rows, []string{s.CategoryName, string(s.Kind), amount, linked})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable(Table{
			Title:   "Budget suggestions",
			Headers: []string{"Category", "Kind", "Amount", "Budget"},
			Rows:    rows,
		}))
	}

	b.WriteString("\n")
	return b.String()
}

func renderJobs(list []jobs.GenerateReportJob) string {
	if len(list) == 0 {
		return mutedStyle.Render("  No jobs.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, j := range list {
		finished := "-"
		if j.CompletedAt != nil {
			finished = j.CompletedAt.Local().Format("15:04:05")
		}
		rows = append(rows, []string{
			j.JobID,
			j.ReportID,
			string(j.Status),
			fmt.Sprintf("%d", j.Attempt),
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			finished,
		})
	}
	return RenderTable(Table{
		Headers: []string{"Job", "Report", "Status", "Attempt", "Created", "Finished"},
		Rows:    rows,
	})
}
