// Package output renders committee results for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	// Audit adds the per-iteration audit trail to text output.
	Audit bool
}

// Generate writes result to w in the configured format. CSV output goes to
// files in OutputDir.
func Generate(w io.Writer, result *dto.CommitteeRunResult, config Config) error {
	if result == nil {
		return fmt.Errorf("no result to render")
	}
	switch config.Format {
	case FormatText, "":
		return writeText(w, result, config)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatCSV:
		return writeCSVFiles(result, config, w)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// Value writes any value as JSON or YAML. Text falls back to YAML, which
// reads well for policies and validation reports.
func Value(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML, FormatText, "":
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func ensureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func outputPath(dir, name string) string {
	return filepath.Join(dir, name)
}
