package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/format"
	"github.com/iwvelando/portfolio-projection/pkg/mathutil"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
)

const (
	reportWidth = 100
	chartWidth  = 50
)

// Theme colors
var (
	colorBorder = lipgloss.Color("#575653")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorOrange = lipgloss.Color("#DA702C")

	// One color per bucket, in buckets order.
	bucketColors = []lipgloss.Color{
		lipgloss.Color("#4385BE"),
		lipgloss.Color("#8B7EC8"),
		lipgloss.Color("#879A39"),
		lipgloss.Color("#D0A215"),
		lipgloss.Color("#DA702C"),
		lipgloss.Color("#D14D41"),
	}
	bucketGlyphs = []string{"█", "▓", "▒", "░", "▚", "▞"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Width(reportWidth-2).
			Align(lipgloss.Center)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	barStyle = lipgloss.NewStyle().
			Foreground(colorAccent)
)

// PrettyFormatter renders a human-readable terminal report.
type PrettyFormatter struct{}

// Name returns the canonical format identifier.
func (PrettyFormatter) Name() string { return "pretty" }

// Format renders summary cards, charts, and the full year table for every forecast.
func (PrettyFormatter) Format(results []forecast.Forecast) ([]byte, error) {
	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		renderForecast(&b, result)
	}
	return []byte(b.String()), nil
}

func renderForecast(b *strings.Builder, result forecast.Forecast) {
	rows := result.Rows
	if len(rows) == 0 {
		b.WriteString(titleStyle.Render("Scenario: "+result.Name) + "\n")
		b.WriteString(mutedStyle.Render("  no projection rows") + "\n")
		return
	}
	first, last := rows[0], rows[len(rows)-1]

	b.WriteString(titleStyle.Render(fmt.Sprintf("Scenario: %s (%d to %d)", result.Name, first.Year, last.Year)))
	b.WriteString("\n")
	b.WriteString(summaryCards(result))
	b.WriteString("\n\n")

	b.WriteString(renderBarChart("Total value", rows, func(r projection.YearRow) int64 { return r.Total }))
	b.WriteString("\n")
	b.WriteString(renderBarChart("Investment returns", rows[1:], func(r projection.YearRow) int64 { return r.InvestmentReturns }))
	b.WriteString("\n")
	b.WriteString(renderComposition(rows))
	b.WriteString("\n")
	b.WriteString(renderTable(rows))

	if notes := withdrawalPlainNotes(result); len(notes) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("  Withdrawals"))
		b.WriteString("\n")
		for _, note := range notes {
			b.WriteString("  " + note + "\n")
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n")
		for _, warning := range result.Warnings {
			b.WriteString(warnStyle.Render("  ! "+warning) + "\n")
		}
	}
}

type card struct {
	label, value, detail string
}

func summaryCards(result forecast.Forecast) string {
	s := result.Summary
	in := result.Input
	last := result.Rows[len(result.Rows)-1]

	cards := []card{
		{"Current total", format.Currency(s.InitialTotal), fmt.Sprintf("in %d", in.BaseYear)},
		{"Projected total", format.Currency(s.FinalTotal), fmt.Sprintf("in %d", last.Year)},
		{"Total returns", format.Currency(s.TotalReturns), "at " + format.Rate(in.GrowthRate) + " growth"},
		{"Contributions", format.Currency(s.TotalContributions), format.Currency(mathutil.RoundCurrency(in.Contributions.Total())) + "/yr"},
		{"Runway", format.Years(s.FinalYearsOfExpenses) + " yrs", "at " + format.Currency(s.FinalAnnualExpense) + "/yr"},
	}

	widths := layoutRow(reportWidth, len(cards))
	rendered := make([]string, 0, len(cards))
	for i, c := range cards {
		rendered = append(rendered, metricCard(c, widths[i]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// layoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
func layoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

func metricCard(c card, outerWidth int) string {
	contentWidth := outerWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(contentWidth).
		Padding(0, 1)

	content := mutedStyle.Render(c.label) + "\n" +
		lipgloss.NewStyle().Bold(true).Foreground(colorText).Render(c.value)
	if c.detail != "" {
		content += "\n" + mutedStyle.Render(c.detail)
	}
	return style.Render(content)
}

// renderBarChart draws one horizontal bar per row scaled to the largest value.
// Negative values draw an empty bar.
func renderBarChart(title string, rows []projection.YearRow, value func(projection.YearRow) int64) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("  " + title))
	b.WriteString("\n")

	var peak int64
	for _, row := range rows {
		if v := value(row); v > peak {
			peak = v
		}
	}

	for _, row := range rows {
		v := value(row)
		n := scaled(v, peak, chartWidth)
		bar := barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", chartWidth-n)
		fmt.Fprintf(&b, "  %d %s %s\n", row.Year, bar, format.Currency(v))
	}
	return b.String()
}

// renderComposition draws a stacked bar per year showing how the total splits
// across buckets.
func renderComposition(rows []projection.YearRow) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("  Composition"))
	b.WriteString("\n")

	var peak int64
	for _, row := range rows {
		if row.Total > peak {
			peak = row.Total
		}
	}

	for _, row := range rows {
		fmt.Fprintf(&b, "  %d ", row.Year)
		for i, bk := range buckets {
			n := scaled(bk.value(row.Balances), peak, chartWidth)
			b.WriteString(lipgloss.NewStyle().Foreground(bucketColors[i]).Render(strings.Repeat(bucketGlyphs[i], n)))
		}
		b.WriteString("\n")
	}

	legend := make([]string, 0, len(buckets))
	for i, bk := range buckets {
		legend = append(legend, lipgloss.NewStyle().Foreground(bucketColors[i]).Render(bucketGlyphs[i])+" "+bk.label)
	}
	b.WriteString("  " + mutedStyle.Render(strings.Join(legend, "  ")))
	b.WriteString("\n")
	return b.String()
}

func scaled(v, peak int64, width int) int {
	if v <= 0 || peak <= 0 {
		return 0
	}
	n := int(float64(v) / float64(peak) * float64(width))
	if n > width {
		n = width
	}
	return n
}

// TableHeaders are the column titles shared by the pretty and PDF tables.
func TableHeaders() []string {
	headers := []string{"Year"}
	for _, bk := range buckets {
		headers = append(headers, bk.label)
	}
	return append(headers, "Total", "Returns", "ROI", "Annual expense", "Years of expenses")
}

func tableRow(row projection.YearRow) []string {
	cells := []string{fmt.Sprintf("%d", row.Year)}
	for _, bk := range buckets {
		cells = append(cells, format.Currency(bk.value(row.Balances)))
	}
	return append(cells,
		format.Currency(row.Total),
		format.Currency(row.InvestmentReturns),
		format.Percent(row.ROIPercent),
		format.Currency(row.AdjustedAnnualExpense),
		format.Years(row.YearsOfExpenses),
	)
}

// renderTable renders a bordered table with headers and one line per row.
func renderTable(rows []projection.YearRow) string {
	headers := TableHeaders()
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, tableRow(row))
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	border := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return mutedStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}

	var b strings.Builder
	b.WriteString(border("╭", "┬", "╮"))
	b.WriteString(mutedStyle.Render("│"))
	for i, h := range headers {
		b.WriteString(sectionStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
		b.WriteString(mutedStyle.Render("│"))
	}
	b.WriteString("\n")
	b.WriteString(border("├", "┼", "┤"))
	for _, row := range cells {
		b.WriteString(mutedStyle.Render("│"))
		for i, cell := range row {
			// Right-align numeric columns (all except year)
			if i == 0 {
				fmt.Fprintf(&b, " %-*s ", widths[i], cell)
			} else {
				fmt.Fprintf(&b, " %*s ", widths[i], cell)
			}
			b.WriteString(mutedStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	b.WriteString(border("╰", "┴", "╯"))
	return b.String()
}
