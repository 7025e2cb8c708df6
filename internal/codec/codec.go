// Package codec renders collector output for the terminal or for other
// tools: JSON, YAML or an aligned text table.
package codec

import (
	"fmt"
	"io"
	"strings"
)

// Exporter writes a value in one output format
type Exporter interface {
	Export(v any, w io.Writer) error
	Format() string
}

// Formats lists the supported output format names
func Formats() []string {
	return []string{"text", "json", "yaml"}
}

// ForFormat returns the exporter for a format name
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "text", "table":
		return NewTextCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}
