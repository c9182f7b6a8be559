package projection

import (
	"github.com/iwvelando/portfolio-projection/pkg/mathutil"
)

// Summary aggregates the headline figures shown above a projection table.
type Summary struct {
	InitialTotal         int64   `json:"initialTotal"`
	FinalTotal           int64   `json:"finalTotal"`
	TotalGrowth          int64   `json:"totalGrowth"`
	TotalReturns         int64   `json:"totalReturns"`
	TotalContributions   int64   `json:"totalContributions"`
	FinalAnnualExpense   int64   `json:"finalAnnualExpense"`
	FinalYearsOfExpenses float64 `json:"finalYearsOfExpenses"`
}

// Summarize derives the summary figures from rows produced by Project(in).
// Contributions are counted for every simulated period.
func Summarize(in Input, rows []YearRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	first := rows[0]
	last := rows[len(rows)-1]

	var returns int64
	for _, row := range rows[1:] {
		returns += row.InvestmentReturns
	}

	periods := len(rows) - 1
	return Summary{
		InitialTotal:         first.Total,
		FinalTotal:           last.Total,
		TotalGrowth:          last.Total - first.Total,
		TotalReturns:         returns,
		TotalContributions:   mathutil.RoundCurrency(in.Contributions.Total() * float64(periods)),
		FinalAnnualExpense:   last.AdjustedAnnualExpense,
		FinalYearsOfExpenses: last.YearsOfExpenses,
	}
}
