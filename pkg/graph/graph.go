package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// =============================================================================
// Chart Serialization API
// =============================================================================

// FormatFromPath returns the chart format implied by a file extension.
// Unknown extensions default to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// MarshalChart converts a chart to indented JSON bytes.
func MarshalChart(c Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeChartTo(c, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalChart decodes chart bytes in the given format and validates the
// result.
func UnmarshalChart(data []byte, format string) (Chart, error) {
	return readChartFrom(bytes.NewReader(data), format)
}

// WriteChart writes a chart to an io.Writer in the given format.
func WriteChart(c Chart, w io.Writer, format string) error {
	return writeChartTo(c, w, format)
}

// WriteChartFile writes a chart to a file, choosing the format from the
// file extension. The file is created with 0644 permissions.
func WriteChartFile(c Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeChartTo(c, f, FormatFromPath(path))
}

// ReadChart decodes and validates a chart from an io.Reader.
func ReadChart(r io.Reader, format string) (Chart, error) {
	return readChartFrom(r, format)
}

// ReadChartFile reads a chart file, choosing JSON or YAML by extension.
func ReadChartFile(path string) (Chart, error) {
	if err := kerrors.ValidatePath(path); err != nil {
		return Chart{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Chart{}, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "chart file %s", path)
		}
		return Chart{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readChartFrom(f, FormatFromPath(path))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeChartTo(c Chart, w io.Writer, format string) error {
	switch format {
	case FormatYAML:
		if err := yaml.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}
	return nil
}

func readChartFrom(r io.Reader, format string) (Chart, error) {
	var c Chart
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r, yaml.Validator(validate)).Decode(&c); err != nil {
			return Chart{}, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "decode yaml chart")
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return Chart{}, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "decode json chart")
		}
	default:
		return Chart{}, kerrors.New(kerrors.ErrCodeInvalidFormat, "unsupported chart format %q", format)
	}
	if err := c.Validate(); err != nil {
		return Chart{}, err
	}
	return c, nil
}
