// Package constants provides shared constants for the portfolio-projection application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// ROIDecimalPlaces is the number of decimals reported for ROI percentages
	ROIDecimalPlaces = 2

	// YearsOfExpensesDecimalPlaces is the number of decimals reported for the runway metric
	YearsOfExpensesDecimalPlaces = 1
)

// Default projection inputs, matching the values the dashboard starts with.
const (
	DefaultBaseYear        = 2025
	DefaultMonthlyExpense  = 5000.0
	DefaultGrowthRate      = 7.0
	DefaultInflationRate   = 3.0
	DefaultYears           = 10
	DefaultDownPayment     = 100000.0
	DefaultDownPaymentYear = 2026

	DefaultBalanceTaxFreeA     = 71000.0
	DefaultBalanceTaxFreeB     = 0.0
	DefaultBalanceRetirement   = 71804.0
	DefaultBalanceHomeSavings  = 37318.0
	DefaultBalanceUnregistered = 20202.0
	DefaultBalanceAlternative  = 554.0

	DefaultContributionTaxFreeA     = 7000.0
	DefaultContributionTaxFreeB     = 7000.0
	DefaultContributionRetirement   = 18000.0
	DefaultContributionUnregistered = 0.0
	DefaultContributionAlternative  = 0.0

	// DefaultScenarioName names the implicit scenario used when none are configured
	DefaultScenarioName = "baseline"
)

// Input bounds for the interactive form and web UI sliders. The engine itself
// accepts any value.
const (
	MinGrowthRate    = 0.0
	MaxGrowthRate    = 20.0
	MinInflationRate = 0.0
	MaxInflationRate = 10.0
	RateSliderStep   = 0.5

	// MaxYears caps the horizon accepted by the runner, server and form
	MaxYears = 200
)

// GrowthRatePresets are the quick-select growth rates offered by the UI.
var GrowthRatePresets = []float64{7, 10, 15}

// InflationRatePresets are the quick-select inflation rates offered by the UI.
var InflationRatePresets = []float64{2, 3, 4}

// Output format constants
const (
	// OutputFormatPretty is the human-readable terminal report
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatPDF is the PDF report output format
	OutputFormatPDF = "pdf"
)

// Export format constants
const (
	ExportFormatYAML = "yaml"
	ExportFormatTOML = "toml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides (PROJECTION_COMMON_GROWTHRATE)
	EnvPrefix = "PROJECTION"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheEntries bounds the number of memoized projections kept by the server
	DefaultCacheEntries = 256

	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"
)
