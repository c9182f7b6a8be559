// Package projection implements the year-by-year portfolio projection engine.
//
// Project is a pure function: it performs no I/O, holds no state between calls
// and returns identical rows for identical inputs, so callers may memoize on
// the Input value.
package projection

import (
	"math"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/mathutil"
)

// Balances holds the six tracked account buckets.
type Balances struct {
	TaxFreeA     float64 `json:"taxFreeA" yaml:"taxFreeA" toml:"taxFreeA" mapstructure:"taxFreeA"`
	TaxFreeB     float64 `json:"taxFreeB" yaml:"taxFreeB" toml:"taxFreeB" mapstructure:"taxFreeB"`
	Retirement   float64 `json:"retirement" yaml:"retirement" toml:"retirement" mapstructure:"retirement"`
	HomeSavings  float64 `json:"homeSavings" yaml:"homeSavings" toml:"homeSavings" mapstructure:"homeSavings"`
	Unregistered float64 `json:"unregistered" yaml:"unregistered" toml:"unregistered" mapstructure:"unregistered"`
	Alternative  float64 `json:"alternative" yaml:"alternative" toml:"alternative" mapstructure:"alternative"`
}

// Total sums all six buckets.
func (b Balances) Total() float64 {
	return b.TaxFreeA + b.TaxFreeB + b.Retirement + b.HomeSavings + b.Unregistered + b.Alternative
}

func (b *Balances) grow(factor float64) {
	b.TaxFreeA *= factor
	b.TaxFreeB *= factor
	b.Retirement *= factor
	b.HomeSavings *= factor
	b.Unregistered *= factor
	b.Alternative *= factor
}

func (b *Balances) contribute(c Contributions) {
	b.TaxFreeA += c.TaxFreeA
	b.TaxFreeB += c.TaxFreeB
	b.Retirement += c.Retirement
	b.Unregistered += c.Unregistered
	b.Alternative += c.Alternative
}

func (b Balances) rounded() RoundedBalances {
	return RoundedBalances{
		TaxFreeA:     mathutil.RoundCurrency(b.TaxFreeA),
		TaxFreeB:     mathutil.RoundCurrency(b.TaxFreeB),
		Retirement:   mathutil.RoundCurrency(b.Retirement),
		HomeSavings:  mathutil.RoundCurrency(b.HomeSavings),
		Unregistered: mathutil.RoundCurrency(b.Unregistered),
		Alternative:  mathutil.RoundCurrency(b.Alternative),
	}
}

// Contributions holds the recurring annual deposits. The home-savings bucket
// never receives one.
type Contributions struct {
	TaxFreeA     float64 `json:"taxFreeA" yaml:"taxFreeA" toml:"taxFreeA" mapstructure:"taxFreeA"`
	TaxFreeB     float64 `json:"taxFreeB" yaml:"taxFreeB" toml:"taxFreeB" mapstructure:"taxFreeB"`
	Retirement   float64 `json:"retirement" yaml:"retirement" toml:"retirement" mapstructure:"retirement"`
	Unregistered float64 `json:"unregistered" yaml:"unregistered" toml:"unregistered" mapstructure:"unregistered"`
	Alternative  float64 `json:"alternative" yaml:"alternative" toml:"alternative" mapstructure:"alternative"`
}

// Total sums the five annual contributions.
func (c Contributions) Total() float64 {
	return c.TaxFreeA + c.TaxFreeB + c.Retirement + c.Unregistered + c.Alternative
}

// Input is a complete, immutable projection configuration. It is a plain
// comparable value and can be used as a map key.
type Input struct {
	BaseYear        int           `json:"baseYear"`
	Balances        Balances      `json:"balances"`
	Contributions   Contributions `json:"contributions"`
	MonthlyExpense  float64       `json:"monthlyExpense"`
	GrowthRate      float64       `json:"growthRate"`
	InflationRate   float64       `json:"inflationRate"`
	Years           int           `json:"years"`
	DownPayment     float64       `json:"downPayment"`
	DownPaymentYear int           `json:"downPaymentYear"`
}

// DefaultInput returns the dashboard's starting values.
func DefaultInput() Input {
	return Input{
		BaseYear: constants.DefaultBaseYear,
		Balances: Balances{
			TaxFreeA:     constants.DefaultBalanceTaxFreeA,
			TaxFreeB:     constants.DefaultBalanceTaxFreeB,
			Retirement:   constants.DefaultBalanceRetirement,
			HomeSavings:  constants.DefaultBalanceHomeSavings,
			Unregistered: constants.DefaultBalanceUnregistered,
			Alternative:  constants.DefaultBalanceAlternative,
		},
		Contributions: Contributions{
			TaxFreeA:     constants.DefaultContributionTaxFreeA,
			TaxFreeB:     constants.DefaultContributionTaxFreeB,
			Retirement:   constants.DefaultContributionRetirement,
			Unregistered: constants.DefaultContributionUnregistered,
			Alternative:  constants.DefaultContributionAlternative,
		},
		MonthlyExpense:  constants.DefaultMonthlyExpense,
		GrowthRate:      constants.DefaultGrowthRate,
		InflationRate:   constants.DefaultInflationRate,
		Years:           constants.DefaultYears,
		DownPayment:     constants.DefaultDownPayment,
		DownPaymentYear: constants.DefaultDownPaymentYear,
	}
}

// Finite reports whether every numeric field of in is a finite number. Inputs
// holding NaN or ±Inf never compare equal to themselves.
func (in Input) Finite() bool {
	values := []float64{
		in.Balances.TaxFreeA, in.Balances.TaxFreeB, in.Balances.Retirement,
		in.Balances.HomeSavings, in.Balances.Unregistered, in.Balances.Alternative,
		in.Contributions.TaxFreeA, in.Contributions.TaxFreeB, in.Contributions.Retirement,
		in.Contributions.Unregistered, in.Contributions.Alternative,
		in.MonthlyExpense, in.GrowthRate, in.InflationRate, in.DownPayment,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RoundedBalances are bucket balances rounded to whole currency units.
type RoundedBalances struct {
	TaxFreeA     int64 `json:"taxFreeA"`
	TaxFreeB     int64 `json:"taxFreeB"`
	Retirement   int64 `json:"retirement"`
	HomeSavings  int64 `json:"homeSavings"`
	Unregistered int64 `json:"unregistered"`
	Alternative  int64 `json:"alternative"`
}

// Withdrawal describes the down payment drawn in a period. It is zero in every
// period other than the triggering one.
type Withdrawal struct {
	Requested       int64 `json:"requested"`
	FromHomeSavings int64 `json:"fromHomeSavings"`
	FromRetirement  int64 `json:"fromRetirement"`
	Unmet           int64 `json:"unmet"`
}

// YearRow is the rounded financial state emitted for one period.
type YearRow struct {
	Year                  int             `json:"year"`
	Balances              RoundedBalances `json:"balances"`
	Total                 int64           `json:"total"`
	InvestmentReturns     int64           `json:"investmentReturns"`
	ROIPercent            float64         `json:"roiPercent"`
	AdjustedAnnualExpense int64           `json:"adjustedAnnualExpense"`
	YearsOfExpenses       float64         `json:"yearsOfExpenses"`
	Withdrawal            Withdrawal      `json:"withdrawal"`
}

// Project simulates the portfolio for in.Years periods and returns
// in.Years+1 rows, the first being the unmodified starting snapshot.
//
// Rounding only touches the emitted rows; the running balances and expense
// keep full precision across periods.
func Project(in Input) []YearRow {
	years := in.Years
	if years < 0 {
		years = 0
	}

	rows := make([]YearRow, 0, years+1)
	balances := in.Balances
	expense := in.MonthlyExpense * constants.MonthsPerYear
	growth := mathutil.GrowthFactor(in.GrowthRate)
	inflation := mathutil.GrowthFactor(in.InflationRate)

	initialTotal := balances.Total()
	rows = append(rows, newRow(in.BaseYear, balances, initialTotal, 0, 0, expense, Withdrawal{}))

	for i := 1; i <= years; i++ {
		year := in.BaseYear + i

		// Expense compounding precedes growth and withdrawal so row i
		// reports exactly i compoundings.
		expense *= inflation

		previousTotal := balances.Total()
		balances.grow(growth)
		yearlyReturns := balances.Total() - previousTotal

		var withdrawal Withdrawal
		if year == in.DownPaymentYear {
			withdrawal = withdrawDownPayment(&balances, in.DownPayment)
		}

		balances.contribute(in.Contributions)

		currentTotal := balances.Total()
		roi := mathutil.CalculatePercentage(yearlyReturns, previousTotal)
		rows = append(rows, newRow(year, balances, currentTotal, yearlyReturns, roi, expense, withdrawal))
	}

	return rows
}

// withdrawDownPayment drains home savings first, then retirement, and leaves
// home savings at exactly zero whatever was available. Any remainder beyond
// both buckets is reported as unmet.
func withdrawDownPayment(b *Balances, amount float64) Withdrawal {
	remaining := amount

	fromHome := 0.0
	if b.HomeSavings > 0 {
		fromHome = mathutil.Min(b.HomeSavings, remaining)
		b.HomeSavings -= fromHome
		remaining -= fromHome
	}

	fromRetirement := 0.0
	if remaining > 0 && b.Retirement > 0 {
		fromRetirement = mathutil.Min(b.Retirement, remaining)
		b.Retirement -= fromRetirement
		remaining -= fromRetirement
	}

	b.HomeSavings = 0

	return Withdrawal{
		Requested:       mathutil.RoundCurrency(amount),
		FromHomeSavings: mathutil.RoundCurrency(fromHome),
		FromRetirement:  mathutil.RoundCurrency(fromRetirement),
		Unmet:           mathutil.RoundCurrency(mathutil.Max(remaining, 0)),
	}
}

func newRow(year int, b Balances, total, returns, roi, expense float64, w Withdrawal) YearRow {
	yearsOfExpenses := 0.0
	if total > 0 {
		yearsOfExpenses = mathutil.SafeDivide(total, expense)
	}
	return YearRow{
		Year:                  year,
		Balances:              b.rounded(),
		Total:                 mathutil.RoundCurrency(total),
		InvestmentReturns:     mathutil.RoundCurrency(returns),
		ROIPercent:            mathutil.RoundTo(roi, constants.ROIDecimalPlaces),
		AdjustedAnnualExpense: mathutil.RoundCurrency(expense),
		YearsOfExpenses:       mathutil.RoundTo(yearsOfExpenses, constants.YearsOfExpensesDecimalPlaces),
		Withdrawal:            w,
	}
}
