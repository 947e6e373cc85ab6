package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/hostwatch/internal/ingest"
	"github.com/rileyhilliard/hostwatch/internal/registry"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Frame is one refresh worth of output.
type Frame struct {
	Time  time.Time             `json:"time" yaml:"time"`
	Hosts []registry.HostRecord `json:"hosts" yaml:"hosts"`
	Stats *ingest.StatsSnapshot `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// JSON renders f as a single line, so consecutive frames form a JSON Lines
// stream.
func JSON(f Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode frame as json: %w", err)
	}
	return string(data) + "\n", nil
}

// YAML renders f as one YAML document, starting with a document marker.
func YAML(f Frame) (string, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode frame as yaml: %w", err)
	}
	return "---\n" + string(data), nil
}

// Format renders f in the named format.
func Format(format string, f Frame) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return Title(f.Time, len(f.Hosts)) + "\n\n" + Table(f.Hosts, f.Stats), nil
	case FormatJSON:
		return JSON(f)
	case FormatYAML:
		return YAML(f)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
