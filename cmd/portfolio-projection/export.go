package main

import (
	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the effective configuration as YAML or TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := setup(cmd, root)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			data, err := config.Export(conf, format)
			if err != nil {
				return err
			}

			w, closeOutput, err := openOutput(cmd, root.outPath)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				_ = closeOutput()
				return err
			}

			logger.Debug("configuration exported",
				zap.String("op", "main.export"),
				zap.String("format", format),
				zap.Int("bytes", len(data)),
			)
			return closeOutput()
		},
	}

	cmd.Flags().StringVar(&format, "format", constants.ExportFormatYAML, "export format: yaml or toml")
	return cmd
}
