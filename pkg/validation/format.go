// Package validation provides common validation utilities.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/portfolio-projection/pkg/constants"
)

// ErrUnsupportedFormat is returned for an unknown output or export format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// OutputFormats lists the report formats in the order they are offered.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatPDF,
}

// ExportFormats lists the configuration serializations.
var ExportFormats = []string{
	constants.ExportFormatYAML,
	constants.ExportFormatTOML,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	return oneOf("output", format, OutputFormats)
}

// ValidateExportFormat checks if the export format is one of the supported formats.
func ValidateExportFormat(format string) error {
	return oneOf("export", format, ExportFormats)
}

func oneOf(kind, format string, allowed []string) error {
	for _, candidate := range allowed {
		if format == candidate {
			return nil
		}
	}
	return fmt.Errorf("%w: expected %s format of %s, got %q",
		ErrUnsupportedFormat, kind, strings.Join(allowed, ", "), format)
}
