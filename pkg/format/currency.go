// Package format renders rounded projection figures for display.
package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a whole-unit amount with a dollar sign and thousands
// separators (e.g., "-$1,234").
func Currency(amount int64) string {
	grouped := Amount(amount)
	if strings.HasPrefix(grouped, "-") {
		return "-$" + grouped[1:]
	}
	return "$" + grouped
}

// Amount returns a whole-unit amount with separators and no symbol (e.g., "-1,234").
func Amount(amount int64) string {
	return printer.Sprintf("%d", amount)
}

// Percent renders a percentage with two decimals (e.g., "7.00%").
func Percent(value float64) string {
	return printer.Sprintf("%.2f%%", value)
}

// Years renders a runway figure with one decimal (e.g., "3.3").
func Years(value float64) string {
	return printer.Sprintf("%.1f", value)
}

// Rate renders a configured percentage rate without trailing zeros
// (7 -> "7%", 6.5 -> "6.5%").
func Rate(value float64) string {
	s := printer.Sprintf("%.2f", value)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
