package output

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/format"
	"github.com/iwvelando/portfolio-projection/pkg/mathutil"
)

// Column widths in mm for the landscape table, matching TableHeaders.
var pdfColumnWidths = []float64{14, 22, 22, 22, 22, 22, 22, 26, 24, 16, 26, 22}

// PDFFormatter produces a landscape A4 report with a summary block and the
// full year table for each scenario.
type PDFFormatter struct{}

// Name returns the canonical format identifier.
func (PDFFormatter) Name() string { return "pdf" }

// Format renders the report and returns the PDF bytes.
func (PDFFormatter) Format(results []forecast.Forecast) ([]byte, error) {
	report := &pdfReport{pdf: fpdf.New("L", "mm", "A4", "")}
	report.pdf.SetMargins(10, 10, 10)
	report.pdf.SetAutoPageBreak(false, 10)
	report.tr = report.pdf.UnicodeTranslatorFromDescriptor("")

	if len(results) == 0 {
		report.pdf.AddPage()
		report.title("Portfolio Projection")
		report.pdf.SetFont("Arial", "", 11)
		report.pdf.CellFormat(0, 8, "No active scenarios.", "", 1, "L", false, 0, "")
	}
	for _, result := range results {
		report.scenario(result)
	}

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfReport struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *pdfReport) title(text string) {
	r.pdf.SetFont("Arial", "B", 18)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(0, 10, r.tr(text), "", 1, "L", false, 0, "")
	r.pdf.SetTextColor(50, 50, 50)
}

func (r *pdfReport) scenario(result forecast.Forecast) {
	r.pdf.AddPage()
	r.title("Portfolio Projection: " + result.Name)

	in := result.Input
	s := result.Summary

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.CellFormat(0, 6, fmt.Sprintf("Base year %d, %d years, growth %s, inflation %s, monthly expense %s",
		in.BaseYear, in.Years, format.Rate(in.GrowthRate), format.Rate(in.InflationRate),
		format.Currency(mathutil.RoundCurrency(in.MonthlyExpense))), "", 1, "L", false, 0, "")
	r.pdf.CellFormat(0, 6, fmt.Sprintf("Down payment %s in %d",
		format.Currency(mathutil.RoundCurrency(in.DownPayment)), in.DownPaymentYear), "", 1, "L", false, 0, "")
	r.pdf.Ln(3)

	// Summary block
	labels := []string{"Current total", "Projected total", "Total growth", "Total returns", "Contributions", "Years of expenses"}
	values := []string{
		format.Currency(s.InitialTotal),
		format.Currency(s.FinalTotal),
		format.Currency(s.TotalGrowth),
		format.Currency(s.TotalReturns),
		format.Currency(s.TotalContributions),
		format.Years(s.FinalYearsOfExpenses) + " at " + format.Currency(s.FinalAnnualExpense) + "/yr",
	}
	cellWidth := 277.0 / float64(len(labels))
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "", 9)
	for _, label := range labels {
		r.pdf.CellFormat(cellWidth, 6, label, "LTR", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetFont("Arial", "B", 11)
	for _, value := range values {
		r.pdf.CellFormat(cellWidth, 8, value, "LBR", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.Ln(4)

	r.tableHeader()
	_, pageHeight := r.pdf.GetPageSize()
	r.pdf.SetFont("Arial", "", 8)
	for i, row := range result.Rows {
		if r.pdf.GetY()+6 > pageHeight-10 {
			r.pdf.AddPage()
			r.tableHeader()
			r.pdf.SetFont("Arial", "", 8)
		}
		fill := i%2 == 1
		for j, cell := range tableRow(row) {
			align := "R"
			if j == 0 {
				align = "L"
			}
			r.pdf.CellFormat(pdfColumnWidths[j], 6, cell, "1", 0, align, fill, 0, "")
		}
		r.pdf.Ln(-1)
	}

	notes := withdrawalPlainNotes(result)
	notes = append(notes, result.Warnings...)
	if len(notes) > 0 {
		r.pdf.Ln(3)
		r.pdf.SetFont("Arial", "I", 9)
		for _, note := range notes {
			r.pdf.MultiCell(0, 5, r.tr(note), "", "L", false)
		}
	}
}

func (r *pdfReport) tableHeader() {
	r.pdf.SetFont("Arial", "B", 8)
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	for i, header := range TableHeaders() {
		r.pdf.CellFormat(pdfColumnWidths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.SetFillColor(245, 247, 250)
}

func withdrawalPlainNotes(result forecast.Forecast) []string {
	var notes []string
	for _, row := range result.Rows {
		w := row.Withdrawal
		if w.Requested == 0 && w.Unmet == 0 {
			continue
		}
		note := fmt.Sprintf("%d: down payment %s drawn as %s from home savings and %s from retirement",
			row.Year, format.Currency(w.Requested), format.Currency(w.FromHomeSavings), format.Currency(w.FromRetirement))
		if w.Unmet > 0 {
			note += fmt.Sprintf("; %s could not be covered", format.Currency(w.Unmet))
		}
		notes = append(notes, note)
	}
	return notes
}
