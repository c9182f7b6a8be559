// Package interactive collects projection inputs from a terminal form and
// prints the resulting report.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/output"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
	"go.uber.org/zap"
)

// ScenarioName labels the forecast produced from the form.
const ScenarioName = "interactive"

// Values mirrors projection.Input as editable text.
type Values struct {
	BaseYear string

	TaxFreeA     string
	TaxFreeB     string
	Retirement   string
	HomeSavings  string
	Unregistered string
	Alternative  string

	ContribTaxFreeA     string
	ContribTaxFreeB     string
	ContribRetirement   string
	ContribUnregistered string
	ContribAlternative  string

	MonthlyExpense  string
	GrowthRate      string
	InflationRate   string
	Years           string
	DownPayment     string
	DownPaymentYear string
}

// ValuesFromInput seeds the form with in.
func ValuesFromInput(in projection.Input) Values {
	return Values{
		BaseYear: strconv.Itoa(in.BaseYear),

		TaxFreeA:     formatAmount(in.Balances.TaxFreeA),
		TaxFreeB:     formatAmount(in.Balances.TaxFreeB),
		Retirement:   formatAmount(in.Balances.Retirement),
		HomeSavings:  formatAmount(in.Balances.HomeSavings),
		Unregistered: formatAmount(in.Balances.Unregistered),
		Alternative:  formatAmount(in.Balances.Alternative),

		ContribTaxFreeA:     formatAmount(in.Contributions.TaxFreeA),
		ContribTaxFreeB:     formatAmount(in.Contributions.TaxFreeB),
		ContribRetirement:   formatAmount(in.Contributions.Retirement),
		ContribUnregistered: formatAmount(in.Contributions.Unregistered),
		ContribAlternative:  formatAmount(in.Contributions.Alternative),

		MonthlyExpense:  formatAmount(in.MonthlyExpense),
		GrowthRate:      formatAmount(in.GrowthRate),
		InflationRate:   formatAmount(in.InflationRate),
		Years:           strconv.Itoa(in.Years),
		DownPayment:     formatAmount(in.DownPayment),
		DownPaymentYear: strconv.Itoa(in.DownPaymentYear),
	}
}

// Input parses every field. The first invalid field is reported by label.
func (v Values) Input() (projection.Input, error) {
	var in projection.Input
	p := parser{}

	in.BaseYear = p.integer("base year", v.BaseYear)

	in.Balances.TaxFreeA = p.amount("tax-free A balance", v.TaxFreeA)
	in.Balances.TaxFreeB = p.amount("tax-free B balance", v.TaxFreeB)
	in.Balances.Retirement = p.amount("retirement balance", v.Retirement)
	in.Balances.HomeSavings = p.amount("home savings balance", v.HomeSavings)
	in.Balances.Unregistered = p.amount("unregistered balance", v.Unregistered)
	in.Balances.Alternative = p.amount("alternative balance", v.Alternative)

	in.Contributions.TaxFreeA = p.amount("tax-free A contribution", v.ContribTaxFreeA)
	in.Contributions.TaxFreeB = p.amount("tax-free B contribution", v.ContribTaxFreeB)
	in.Contributions.Retirement = p.amount("retirement contribution", v.ContribRetirement)
	in.Contributions.Unregistered = p.amount("unregistered contribution", v.ContribUnregistered)
	in.Contributions.Alternative = p.amount("alternative contribution", v.ContribAlternative)

	in.MonthlyExpense = p.amount("monthly expense", v.MonthlyExpense)
	in.GrowthRate = p.rate("growth rate", v.GrowthRate, constants.MinGrowthRate, constants.MaxGrowthRate)
	in.InflationRate = p.rate("inflation rate", v.InflationRate, constants.MinInflationRate, constants.MaxInflationRate)
	in.Years = p.count("years", v.Years)
	in.DownPayment = p.amount("down payment", v.DownPayment)
	in.DownPaymentYear = p.integer("down payment year", v.DownPaymentYear)

	if p.err != nil {
		return projection.Input{}, p.err
	}
	return in, nil
}

// parser keeps the first error so Input reads as a flat list of fields.
type parser struct {
	err error
}

func (p *parser) fail(label string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", label, err)
	}
}

func (p *parser) amount(label, s string) float64 {
	f, err := parseAmount(s)
	if err != nil {
		p.fail(label, err)
	}
	return f
}

func (p *parser) rate(label, s string, min, max float64) float64 {
	if err := validateRate(min, max)(s); err != nil {
		p.fail(label, err)
		return 0
	}
	f, _ := parseNumber(s)
	return f
}

func (p *parser) integer(label, s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		p.fail(label, errors.New("must be a whole number"))
	}
	return n
}

func (p *parser) count(label, s string) int {
	if err := validateCount(s); err != nil {
		p.fail(label, err)
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber accepts "1,234.50", "$1234" and "7%".
func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, errors.New("value is required")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func parseAmount(s string) (float64, error) {
	f, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return f, nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func validateYear(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("must be a whole number")
	}
	return nil
}

func validateCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	if n > constants.MaxYears {
		return fmt.Errorf("must be at most %d", constants.MaxYears)
	}
	return nil
}

func validateRate(min, max float64) func(string) error {
	return func(s string) error {
		f, err := parseNumber(s)
		if err != nil {
			return err
		}
		if f < min || f > max {
			return fmt.Errorf("must be between %g%% and %g%%", min, max)
		}
		return nil
	}
}

func amountInput(title string, value *string) *huh.Input {
	return huh.NewInput().Title(title).Value(value).Validate(validateAmount)
}

// NewForm builds the three-page form bound to v.
func NewForm(v *Values) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Starting balances"),
			amountInput("Tax-free A", &v.TaxFreeA),
			amountInput("Tax-free B", &v.TaxFreeB),
			amountInput("Retirement", &v.Retirement),
			amountInput("Home savings", &v.HomeSavings),
			amountInput("Unregistered", &v.Unregistered),
			amountInput("Alternative", &v.Alternative),
		),
		huh.NewGroup(
			huh.NewNote().Title("Annual contributions"),
			amountInput("Tax-free A", &v.ContribTaxFreeA),
			amountInput("Tax-free B", &v.ContribTaxFreeB),
			amountInput("Retirement", &v.ContribRetirement),
			amountInput("Unregistered", &v.ContribUnregistered),
			amountInput("Alternative", &v.ContribAlternative),
		),
		huh.NewGroup(
			huh.NewNote().Title("Assumptions"),
			huh.NewInput().Title("Base year").Value(&v.BaseYear).Validate(validateYear),
			amountInput("Monthly expense", &v.MonthlyExpense),
			huh.NewInput().
				Title("Growth rate (%)").
				Description(presetHint(constants.GrowthRatePresets)).
				Value(&v.GrowthRate).
				Validate(validateRate(constants.MinGrowthRate, constants.MaxGrowthRate)),
			huh.NewInput().
				Title("Inflation rate (%)").
				Description(presetHint(constants.InflationRatePresets)).
				Value(&v.InflationRate).
				Validate(validateRate(constants.MinInflationRate, constants.MaxInflationRate)),
			huh.NewInput().Title("Years").Value(&v.Years).Validate(validateCount),
			amountInput("Down payment", &v.DownPayment),
			huh.NewInput().Title("Down payment year").Value(&v.DownPaymentYear).Validate(validateYear),
		),
	)
}

func presetHint(presets []float64) string {
	parts := make([]string, len(presets))
	for i, p := range presets {
		parts[i] = fmt.Sprintf("%g%%", p)
	}
	return "common choices: " + strings.Join(parts, ", ")
}

// Run shows the form seeded with initial, projects the result and writes it
// to w in the given output format. Aborting the form returns nil without
// writing anything.
func Run(ctx context.Context, w io.Writer, logger *zap.Logger, runner *forecast.Runner, initial projection.Input, format string) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	values := ValuesFromInput(initial)
	if err := NewForm(&values).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			logger.Info("interactive form aborted",
				zap.String("op", "interactive.Run"),
			)
			return nil
		}
		return fmt.Errorf("interactive form failed: %w", err)
	}

	return Render(w, runner, values, format)
}

// Render projects the submitted values and writes the report.
func Render(w io.Writer, runner *forecast.Runner, values Values, format string) error {
	in, err := values.Input()
	if err != nil {
		return err
	}
	if runner == nil {
		runner = forecast.NewRunner(nil, nil)
	}
	return output.Write(w, format, []forecast.Forecast{runner.Project(ScenarioName, in)})
}
