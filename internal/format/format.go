// Package format selects between the output encodings of the CLI.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat represents the output format type for non-interactive mode
type OutputFormat string

const (
	// Text renders reports as indented plain text.
	Text OutputFormat = "text"

	// JSON renders reports as a machine-readable JSON document.
	JSON OutputFormat = "json"
)

// String returns the string representation of the OutputFormat
func (f OutputFormat) String() string {
	return string(f)
}

// SupportedFormats is a list of all supported output formats as strings
var SupportedFormats = []string{
	string(Text),
	string(JSON),
}

// Parse converts a string to an OutputFormat
func Parse(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case string(Text):
		return Text, nil
	case string(JSON):
		return JSON, nil
	default:
		return "", fmt.Errorf("invalid format %q, supported: %s", s, strings.Join(SupportedFormats, ", "))
	}
}

// GetHelpText returns a formatted string describing all supported formats
func GetHelpText() string {
	return fmt.Sprintf(`Supported output formats:
- %s: Plain text output (default)
- %s: Machine-readable JSON output`, Text, JSON)
}

// Render returns text unchanged for the text format and marshals v for the
// JSON format. Callers pass both representations of the same report.
func Render(text string, v any, f OutputFormat) (string, error) {
	switch f {
	case JSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		return string(out), nil
	default:
		return text, nil
	}
}
