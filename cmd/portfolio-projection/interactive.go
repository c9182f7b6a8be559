package main

import (
	"fmt"

	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/internal/interactive"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/spf13/cobra"
)

func newInteractiveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"form"},
		Short:   "Edit the inputs in a terminal form, then print the projection",
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

			active := conf.ActiveScenarios()
			if len(active) == 0 {
				return forecast.ErrNoActiveScenarios
			}
			initial := active[0].Input(conf.Common)

			if format == constants.OutputFormatPDF && root.outPath == "" {
				return fmt.Errorf("the %s format needs --out when used interactively", format)
			}
			w, closeOutput, err := openOutput(cmd, root.outPath)
			if err != nil {
				return err
			}

			runner := forecast.NewRunner(logger, nil)
			if err := interactive.Run(cmd.Context(), w, logger, runner, initial, format); err != nil {
				_ = closeOutput()
				return err
			}
			return closeOutput()
		},
	}
}
