// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
)

// ValidateInput returns warnings for values the engine accepts but that are
// probably mistakes. The scenario name prefixes every message.
func ValidateInput(scenario string, in projection.Input) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s': ", scenario)+fmt.Sprintf(format, args...))
	}

	for _, field := range balanceFields(in.Balances) {
		if field.value < 0 {
			warn("%s balance is negative (%.2f)", field.name, field.value)
		}
	}
	for _, field := range contributionFields(in.Contributions) {
		if field.value < 0 {
			warn("%s contribution is negative (%.2f)", field.name, field.value)
		}
	}

	if in.MonthlyExpense < 0 {
		warn("monthly expense is negative (%.2f)", in.MonthlyExpense)
	}
	if in.DownPayment < 0 {
		warn("down payment is negative (%.2f)", in.DownPayment)
	}
	if in.Years < 0 {
		warn("years is negative (%d), only the starting year is projected", in.Years)
	}
	if in.Years > constants.MaxYears {
		warn("years %d exceeds the limit of %d and will not be projected", in.Years, constants.MaxYears)
	}

	warnings = append(warnings, prefixed(scenario, ValidateDownPaymentYear(in.BaseYear, in.Years, in.DownPaymentYear, in.DownPayment))...)

	if in.GrowthRate < constants.MinGrowthRate || in.GrowthRate > constants.MaxGrowthRate {
		warn("growth rate %.2f%% is outside the usual range of %.0f%% to %.0f%%",
			in.GrowthRate, constants.MinGrowthRate, constants.MaxGrowthRate)
	}
	if in.InflationRate < constants.MinInflationRate || in.InflationRate > constants.MaxInflationRate {
		warn("inflation rate %.2f%% is outside the usual range of %.0f%% to %.0f%%",
			in.InflationRate, constants.MinInflationRate, constants.MaxInflationRate)
	}

	return warnings
}

// ValidateDownPaymentYear reports a down payment that will never be drawn.
// The starting year itself is a snapshot and never triggers a withdrawal.
func ValidateDownPaymentYear(baseYear, years, downPaymentYear int, downPayment float64) []string {
	if downPayment <= 0 {
		return nil
	}
	if downPaymentYear == baseYear {
		return []string{fmt.Sprintf("down payment year %d is the starting year and will not be withdrawn", downPaymentYear)}
	}
	last := baseYear + max(years, 0)
	if downPaymentYear < baseYear || downPaymentYear > last {
		return []string{fmt.Sprintf("down payment year %d is outside the projection window (%d-%d) and will not be withdrawn",
			downPaymentYear, baseYear+1, last)}
	}
	return nil
}

type namedValue struct {
	name  string
	value float64
}

func balanceFields(b projection.Balances) []namedValue {
	return []namedValue{
		{"tax-free A", b.TaxFreeA},
		{"tax-free B", b.TaxFreeB},
		{"retirement", b.Retirement},
		{"home savings", b.HomeSavings},
		{"unregistered", b.Unregistered},
		{"alternative", b.Alternative},
	}
}

func contributionFields(c projection.Contributions) []namedValue {
	return []namedValue{
		{"tax-free A", c.TaxFreeA},
		{"tax-free B", c.TaxFreeB},
		{"retirement", c.Retirement},
		{"unregistered", c.Unregistered},
		{"alternative", c.Alternative},
	}
}

func prefixed(scenario string, messages []string) []string {
	for i, message := range messages {
		messages[i] = fmt.Sprintf("Scenario '%s': %s", scenario, message)
	}
	return messages
}
