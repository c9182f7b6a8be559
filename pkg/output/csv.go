package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/iwvelando/portfolio-projection/internal/forecast"
)

// csvHeaders are machine-friendly column names, one row per scenario and year.
var csvHeaders = []string{
	"scenario", "year",
	"taxFreeA", "taxFreeB", "retirement", "homeSavings", "unregistered", "alternative",
	"total", "investmentReturns", "roiPercent", "adjustedAnnualExpense", "yearsOfExpenses",
	"downPayment", "fromHomeSavings", "fromRetirement", "unmet",
}

// CSVFormatter outputs in comma-separated value format.
type CSVFormatter struct{}

// Name returns the canonical format identifier.
func (CSVFormatter) Name() string { return "csv" }

// Format writes a header line followed by every row of every forecast.
func (CSVFormatter) Format(results []forecast.Forecast) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeaders); err != nil {
		return nil, err
	}

	for _, result := range results {
		for _, row := range result.Rows {
			record := []string{result.Name, strconv.Itoa(row.Year)}
			for _, bk := range buckets {
				record = append(record, strconv.FormatInt(bk.value(row.Balances), 10))
			}
			record = append(record,
				strconv.FormatInt(row.Total, 10),
				strconv.FormatInt(row.InvestmentReturns, 10),
				strconv.FormatFloat(row.ROIPercent, 'f', 2, 64),
				strconv.FormatInt(row.AdjustedAnnualExpense, 10),
				strconv.FormatFloat(row.YearsOfExpenses, 'f', 1, 64),
				strconv.FormatInt(row.Withdrawal.Requested, 10),
				strconv.FormatInt(row.Withdrawal.FromHomeSavings, 10),
				strconv.FormatInt(row.Withdrawal.FromRetirement, 10),
				strconv.FormatInt(row.Withdrawal.Unmet, 10),
			)
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CsvString renders results as CSV text, returning an empty string on failure.
func CsvString(results []forecast.Forecast) string {
	data, err := CSVFormatter{}.Format(results)
	if err != nil {
		return ""
	}
	return string(data)
}
