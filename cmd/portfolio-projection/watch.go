package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-render the report every time the configuration file changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := setup(cmd, root)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			format, err := resolveOutputFormat(conf, root.outputFormat)
			if err != nil {
				return err
			}
			if format == constants.OutputFormatPDF {
				return fmt.Errorf("watch does not support the %s format", format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &watchRenderer{
				out:      cmd.OutOrStdout(),
				logger:   logger,
				runner:   forecast.NewRunner(logger, forecast.NewCache(constants.DefaultCacheEntries)),
				format:   format,
				baseYear: baseYearOverride(cmd, root),
			}
			return config.Watch(ctx, root.configPath, logger, w.render)
		},
	}
}

func baseYearOverride(cmd *cobra.Command, root *rootOptions) *int {
	if !cmd.Flags().Changed("base-year") {
		return nil
	}
	year := root.baseYear
	return &year
}

// watchRenderer prints one report per configuration revision.
type watchRenderer struct {
	out      io.Writer
	logger   *zap.Logger
	runner   *forecast.Runner
	format   string
	baseYear *int
}

func (w *watchRenderer) render(conf *config.Configuration) {
	if w.baseYear != nil {
		conf.Common.BaseYear = *w.baseYear
	}
	logWarnings(w.logger, conf.ValidateConfiguration())

	results, err := w.runner.Run(conf)
	if err != nil {
		w.logger.Error("failed to compute forecast",
			zap.String("op", "main.watch"),
			zap.Error(err),
		)
		return
	}

	if w.format == constants.OutputFormatPretty {
		fmt.Fprintf(w.out, "\n=== %s ===\n", time.Now().Format(time.RFC3339))
	}
	if err := output.Write(w.out, w.format, results); err != nil {
		w.logger.Error("failed to write report",
			zap.String("op", "main.watch"),
			zap.Error(err),
		)
	}
}
