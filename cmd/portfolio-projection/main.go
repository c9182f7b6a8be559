package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/output"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type rootOptions struct {
	configPath   string
	logLevel     string
	outputFormat string
	outPath      string
	baseYear     int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portfolio-projection",
		Short:         "Project investment balances year by year",
		Long:          "Project six account balances forward under growth, inflation, contributions and a one-time down payment.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVarP(&opts.outputFormat, "output-format", "o", "", "output format override: pretty, csv, json, pdf")
	flags.StringVar(&opts.outPath, "out", "", "write the report to this file instead of stdout")
	flags.IntVar(&opts.baseYear, "base-year", 0, "override the starting calendar year")

	cmd.AddCommand(
		newServeCmd(opts),
		newWatchCmd(opts),
		newInteractiveCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// loadConfig reads the configuration named by --config. A missing default
// file falls back to the built-in defaults; a missing explicit file is an
// error.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(opts.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, fmt.Errorf("failed to load configuration at %s: %w", opts.configPath, err)
		}
		conf = config.Default()
	}

	if cmd.Flags().Changed("base-year") {
		conf.Common.BaseYear = opts.baseYear
	}
	return conf, nil
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Configuration, *zap.Logger, error) {
	conf, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, logger, nil
}

// resolveOutputFormat applies the CLI override on top of the configured format.
func resolveOutputFormat(conf *config.Configuration, override string) (string, error) {
	format := conf.Output.Format
	if override != "" {
		format = override
	}
	if format == "" {
		format = constants.OutputFormatPretty
	}

	format = output.NormalizeFormatName(format)
	if err := validation.ValidateOutputFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// openOutput returns the report destination and a function that closes it.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, file.Close, nil
}

func logWarnings(logger *zap.Logger, warnings []string) {
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
}

func runReport(cmd *cobra.Command, opts *rootOptions) error {
	conf, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	format, err := resolveOutputFormat(conf, opts.outputFormat)
	if err != nil {
		return err
	}

	logWarnings(logger, conf.ValidateConfiguration())

	results, err := forecast.GetForecast(logger, *conf)
	if err != nil {
		logger.Error("failed to compute forecast",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return err
	}

	w, closeOutput, err := openOutput(cmd, opts.outPath)
	if err != nil {
		return err
	}
	if err := output.Write(w, format, results); err != nil {
		_ = closeOutput()
		return err
	}
	return closeOutput()
}
