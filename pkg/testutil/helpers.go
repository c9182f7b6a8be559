// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindScenario(results []forecast.Forecast, name string) *forecast.Forecast {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FinalRow returns the last projected row of a forecast, or nil when the
// forecast is nil or has no rows.
func FinalRow(result *forecast.Forecast) *projection.YearRow {
	if result == nil || len(result.Rows) == 0 {
		return nil
	}
	return &result.Rows[len(result.Rows)-1]
}
