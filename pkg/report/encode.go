package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
)

// WriteJSON writes result as indented JSON.
func WriteJSON(w io.Writer, result *analysis.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(result)
	if err != nil {
		return fmt.Errorf("write json report: %w", err)
	}

	return nil
}

// WriteYAML writes result as YAML.
func WriteYAML(w io.Writer, result *analysis.Result) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("write yaml report: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write yaml report: %w", err)
	}

	return nil
}
