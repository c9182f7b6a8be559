// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and resolving the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/projection"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
	"github.com/spf13/viper"
)

// ErrNonFiniteValue is returned when a numeric setting decodes to NaN or ±Inf.
var ErrNonFiniteValue = errors.New("non-finite numeric value")

// Configuration holds all configuration for portfolio-projection.
type Configuration struct {
	Common    Common        `json:"common" yaml:"common" toml:"common" mapstructure:"common"`
	Scenarios []Scenario    `json:"scenarios" yaml:"scenarios" toml:"scenarios" mapstructure:"scenarios"`
	Logging   LoggingConfig `json:"logging" yaml:"logging,omitempty" toml:"logging" mapstructure:"logging"`
	Output    OutputConfig  `json:"output" yaml:"output,omitempty" toml:"output" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty" mapstructure:"level"`                // debug, info, warn, error
	Format     string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" mapstructure:"format"`             // json, console
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" toml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, pdf
}

// Common holds the projection inputs shared by all scenarios.
type Common struct {
	BaseYear        int                      `json:"baseYear" yaml:"baseYear" toml:"baseYear" mapstructure:"baseYear"`
	Balances        projection.Balances      `json:"balances" yaml:"balances" toml:"balances" mapstructure:"balances"`
	Contributions   projection.Contributions `json:"contributions" yaml:"contributions" toml:"contributions" mapstructure:"contributions"`
	MonthlyExpense  float64                  `json:"monthlyExpense" yaml:"monthlyExpense" toml:"monthlyExpense" mapstructure:"monthlyExpense"`
	GrowthRate      float64                  `json:"growthRate" yaml:"growthRate" toml:"growthRate" mapstructure:"growthRate"`
	InflationRate   float64                  `json:"inflationRate" yaml:"inflationRate" toml:"inflationRate" mapstructure:"inflationRate"`
	Years           int                      `json:"years" yaml:"years" toml:"years" mapstructure:"years"`
	DownPayment     float64                  `json:"downPayment" yaml:"downPayment" toml:"downPayment" mapstructure:"downPayment"`
	DownPaymentYear int                      `json:"downPaymentYear" yaml:"downPaymentYear" toml:"downPaymentYear" mapstructure:"downPaymentYear"`
}

// Scenario names a variant of the common inputs. Nil overrides inherit the
// common value.
type Scenario struct {
	Name            string   `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
	Active          bool     `json:"active" yaml:"active" toml:"active" mapstructure:"active"`
	GrowthRate      *float64 `json:"growthRate,omitempty" yaml:"growthRate,omitempty" toml:"growthRate,omitempty" mapstructure:"growthRate"`
	InflationRate   *float64 `json:"inflationRate,omitempty" yaml:"inflationRate,omitempty" toml:"inflationRate,omitempty" mapstructure:"inflationRate"`
	MonthlyExpense  *float64 `json:"monthlyExpense,omitempty" yaml:"monthlyExpense,omitempty" toml:"monthlyExpense,omitempty" mapstructure:"monthlyExpense"`
	Years           *int     `json:"years,omitempty" yaml:"years,omitempty" toml:"years,omitempty" mapstructure:"years"`
	DownPayment     *float64 `json:"downPayment,omitempty" yaml:"downPayment,omitempty" toml:"downPayment,omitempty" mapstructure:"downPayment"`
	DownPaymentYear *int     `json:"downPaymentYear,omitempty" yaml:"downPaymentYear,omitempty" toml:"downPaymentYear,omitempty" mapstructure:"downPaymentYear"`
}

// Default returns the built-in configuration: the dashboard's starting values
// and a single active baseline scenario.
func Default() *Configuration {
	return &Configuration{
		Common:    CommonFromInput(projection.DefaultInput()),
		Scenarios: []Scenario{{Name: constants.DefaultScenarioName, Active: true}},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Output:    OutputConfig{Format: constants.OutputFormatPretty},
	}
}

// CommonFromInput copies an engine input into the common section.
func CommonFromInput(in projection.Input) Common {
	return Common{
		BaseYear:        in.BaseYear,
		Balances:        in.Balances,
		Contributions:   in.Contributions,
		MonthlyExpense:  in.MonthlyExpense,
		GrowthRate:      in.GrowthRate,
		InflationRate:   in.InflationRate,
		Years:           in.Years,
		DownPayment:     in.DownPayment,
		DownPaymentYear: in.DownPaymentYear,
	}
}

// Input returns the engine input described by the common section alone.
func (c Common) Input() projection.Input {
	return projection.Input{
		BaseYear:        c.BaseYear,
		Balances:        c.Balances,
		Contributions:   c.Contributions,
		MonthlyExpense:  c.MonthlyExpense,
		GrowthRate:      c.GrowthRate,
		InflationRate:   c.InflationRate,
		Years:           c.Years,
		DownPayment:     c.DownPayment,
		DownPaymentYear: c.DownPaymentYear,
	}
}

// Input resolves the scenario against the common section.
func (s Scenario) Input(common Common) projection.Input {
	in := common.Input()
	if s.GrowthRate != nil {
		in.GrowthRate = *s.GrowthRate
	}
	if s.InflationRate != nil {
		in.InflationRate = *s.InflationRate
	}
	if s.MonthlyExpense != nil {
		in.MonthlyExpense = *s.MonthlyExpense
	}
	if s.Years != nil {
		in.Years = *s.Years
	}
	if s.DownPayment != nil {
		in.DownPayment = *s.DownPayment
	}
	if s.DownPaymentYear != nil {
		in.DownPaymentYear = *s.DownPaymentYear
	}
	return in
}

// ActiveScenarios returns the scenarios to run. A configuration without any
// scenarios runs one implicit baseline.
func (conf *Configuration) ActiveScenarios() []Scenario {
	if len(conf.Scenarios) == 0 {
		return []Scenario{{Name: constants.DefaultScenarioName, Active: true}}
	}
	var active []Scenario
	for _, scenario := range conf.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// LoadConfiguration takes a file path as input and loads the configuration
// there. The format follows the file extension and defaults to YAML.
// PROJECTION_* environment variables override values from the file.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper(true)
	v.SetConfigFile(configPath)
	v.SetConfigType(configTypeFor(configPath))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a configuration of the given type (yaml,
// toml or json) from r. The environment is not consulted, so the result holds
// exactly what r supplies on top of the defaults.
func LoadConfigurationFromReader(r io.Reader, configType string) (*Configuration, error) {
	if configType == "" {
		configType = "yaml"
	}
	v := newViper(false)
	v.SetConfigType(configType)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return decode(v)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. None of them prevent a run.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(conf.Scenarios) > 0 && len(conf.ActiveScenarios()) == 0 {
		warnings = append(warnings, "no active scenarios are configured")
	}

	seen := make(map[string]bool, len(conf.Scenarios))
	for _, scenario := range conf.Scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("scenario name %q is used more than once", scenario.Name))
		}
		seen[scenario.Name] = true
	}

	for _, scenario := range conf.ActiveScenarios() {
		warnings = append(warnings, validation.ValidateInput(scenario.Name, scenario.Input(conf.Common))...)
	}

	return warnings
}

func newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	if withEnv {
		v.SetEnvPrefix(constants.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", d.Output.Format)

	c := d.Common
	v.SetDefault("common.baseYear", c.BaseYear)
	v.SetDefault("common.balances.taxFreeA", c.Balances.TaxFreeA)
	v.SetDefault("common.balances.taxFreeB", c.Balances.TaxFreeB)
	v.SetDefault("common.balances.retirement", c.Balances.Retirement)
	v.SetDefault("common.balances.homeSavings", c.Balances.HomeSavings)
	v.SetDefault("common.balances.unregistered", c.Balances.Unregistered)
	v.SetDefault("common.balances.alternative", c.Balances.Alternative)
	v.SetDefault("common.contributions.taxFreeA", c.Contributions.TaxFreeA)
	v.SetDefault("common.contributions.taxFreeB", c.Contributions.TaxFreeB)
	v.SetDefault("common.contributions.retirement", c.Contributions.Retirement)
	v.SetDefault("common.contributions.unregistered", c.Contributions.Unregistered)
	v.SetDefault("common.contributions.alternative", c.Contributions.Alternative)
	v.SetDefault("common.monthlyExpense", c.MonthlyExpense)
	v.SetDefault("common.growthRate", c.GrowthRate)
	v.SetDefault("common.inflationRate", c.InflationRate)
	v.SetDefault("common.years", c.Years)
	v.SetDefault("common.downPayment", c.DownPayment)
	v.SetDefault("common.downPaymentYear", c.DownPaymentYear)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.checkFinite(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// checkFinite rejects NaN and ±Inf in common values and scenario overrides.
func (conf *Configuration) checkFinite() error {
	if !conf.Common.Input().Finite() {
		return fmt.Errorf("%w in common settings", ErrNonFiniteValue)
	}
	for _, scenario := range conf.Scenarios {
		if !scenario.Input(conf.Common).Finite() {
			return fmt.Errorf("%w in scenario %q", ErrNonFiniteValue, scenario.Name)
		}
	}
	return nil
}

func configTypeFor(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "toml":
		return "toml"
	case "json":
		return "json"
	default:
		return "yaml"
	}
}
