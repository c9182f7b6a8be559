package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Export serializes the configuration as YAML or TOML. The result loads back
// through LoadConfigurationFromReader unchanged.
func Export(conf *Configuration, format string) ([]byte, error) {
	if err := validation.ValidateExportFormat(format); err != nil {
		return nil, err
	}

	switch format {
	case constants.ExportFormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
			return nil, fmt.Errorf("failed to encode configuration as toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(conf); err != nil {
			return nil, fmt.Errorf("failed to encode configuration as yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize yaml encoding: %w", err)
		}
		return buf.Bytes(), nil
	}
}
