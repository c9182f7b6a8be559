// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"errors"
	"fmt"

	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
	"go.uber.org/zap"
)

// ErrNoActiveScenarios is returned when every configured scenario is inactive.
var ErrNoActiveScenarios = errors.New("no active scenarios")

// ErrHorizonTooLong is returned when a scenario asks for more than
// constants.MaxYears periods.
var ErrHorizonTooLong = errors.New("projection horizon too long")

// Forecast holds all information related to a specific scenario's projection.
type Forecast struct {
	Name     string               `json:"name"`
	Input    projection.Input     `json:"input"`
	Rows     []projection.YearRow `json:"rows"`
	Summary  projection.Summary   `json:"summary"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Runner resolves scenarios into engine inputs and projects them, optionally
// through a shared Cache.
type Runner struct {
	logger *zap.Logger
	cache  *Cache
}

// NewRunner creates a Runner. A nil cache projects every scenario directly.
func NewRunner(logger *zap.Logger, cache *Cache) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, cache: cache}
}

// GetForecast processes the Forecasts for all active Scenarios.
func GetForecast(logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	return NewRunner(logger, nil).Run(&conf)
}

// Run projects every active scenario in configuration order.
func (r *Runner) Run(conf *config.Configuration) ([]Forecast, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			r.logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.Run"),
			)
		}
	}

	active := conf.ActiveScenarios()
	if len(active) == 0 {
		return nil, ErrNoActiveScenarios
	}

	inputs := make([]projection.Input, len(active))
	for i, scenario := range active {
		inputs[i] = scenario.Input(conf.Common)
		if inputs[i].Years > constants.MaxYears {
			return nil, fmt.Errorf("%w: scenario %q asks for %d years, the limit is %d",
				ErrHorizonTooLong, scenario.Name, inputs[i].Years, constants.MaxYears)
		}
	}

	results := make([]Forecast, 0, len(active))
	for i, scenario := range active {
		results = append(results, r.Project(scenario.Name, inputs[i]))
	}
	return results, nil
}

// Project runs a single named input.
func (r *Runner) Project(name string, in projection.Input) Forecast {
	rows := r.cache.Project(in)
	r.logger.Debug("projected scenario",
		zap.String("op", "forecast.Project"),
		zap.String("scenario", name),
		zap.Int("rows", len(rows)),
	)
	return Forecast{
		Name:     name,
		Input:    in,
		Rows:     rows,
		Summary:  projection.Summarize(in, rows),
		Warnings: validation.ValidateInput(name, in),
	}
}
