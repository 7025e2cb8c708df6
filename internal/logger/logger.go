// Package logger builds zerolog loggers from configuration. Nothing here
// touches a global: callers pass the returned logger down explicitly.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured
const DefaultLevel = "info"

// Output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logging settings
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug,omitempty"`
	Output     string `json:"output" yaml:"output,omitempty"`
	Format     string `json:"format" yaml:"format,omitempty"`
	TimeFormat string `json:"time_format" yaml:"time_format,omitempty"`
}

// New creates a logger writing to the configured output. Output is
// "stdout", "stderr" (default) or a file path, opened for append.
func New(config Config) (zerolog.Logger, error) {
	output, err := openOutput(config.Output)
	if err != nil {
		return zerolog.Nop(), err
	}
	return NewWithWriter(config, output)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(config Config, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	timeFormat := config.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	switch config.Format {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", config.Format)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// WithComponent tags a logger with the component name
func WithComponent(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return f, nil
	}
}
