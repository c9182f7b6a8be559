package output

import (
	"encoding/json"

	"github.com/iwvelando/portfolio-projection/internal/forecast"
)

// JSONFormatter emits the forecasts with their inputs, rows, summaries and warnings.
type JSONFormatter struct{}

// Name returns the canonical format identifier.
func (JSONFormatter) Name() string { return "json" }

// Format marshals results as an indented document of the form {"scenarios": [...]}.
func (JSONFormatter) Format(results []forecast.Forecast) ([]byte, error) {
	if results == nil {
		results = []forecast.Forecast{}
	}
	data, err := json.MarshalIndent(struct {
		Scenarios []forecast.Forecast `json:"scenarios"`
	}{results}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
