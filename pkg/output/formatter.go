// Package output provides formatters for displaying forecast results.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
)

// Formatter renders a set of forecasts into a complete document.
type Formatter interface {
	Format(results []forecast.Forecast) ([]byte, error)
	// Name returns the canonical format identifier.
	Name() string
}

var builtInFormatters = []Formatter{
	PrettyFormatter{},
	CSVFormatter{},
	JSONFormatter{},
	PDFFormatter{},
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"console": "pretty",
	"table":   "pretty",
	"text":    "pretty",
	"report":  "pdf",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// GetFormatter fetches a registered formatter by name or alias.
func GetFormatter(name string) (Formatter, error) {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f, nil
		}
	}
	return nil, validation.ValidateOutputFormat(n)
}

// AvailableFormats returns the canonical formatter names.
func AvailableFormats() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// Write formats results with the named formatter and writes them to w.
func Write(w io.Writer, format string, results []forecast.Forecast) error {
	f, err := GetFormatter(format)
	if err != nil {
		return err
	}
	data, err := f.Format(results)
	if err != nil {
		return fmt.Errorf("failed to format %s output: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

type bucket struct {
	label string
	value func(projection.RoundedBalances) int64
}

// buckets lists the account buckets in display order.
var buckets = []bucket{
	{"Tax-free A", func(b projection.RoundedBalances) int64 { return b.TaxFreeA }},
	{"Tax-free B", func(b projection.RoundedBalances) int64 { return b.TaxFreeB }},
	{"Retirement", func(b projection.RoundedBalances) int64 { return b.Retirement }},
	{"Home savings", func(b projection.RoundedBalances) int64 { return b.HomeSavings }},
	{"Unregistered", func(b projection.RoundedBalances) int64 { return b.Unregistered }},
	{"Alternative", func(b projection.RoundedBalances) int64 { return b.Alternative }},
}
