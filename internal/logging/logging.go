// Package logging builds the charmbracelet/log logger shared by the CLI and
// the HTTP server.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix tags every line.
const Prefix = "todoshare"

// Options configure a logger.
type Options struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is text, json or logfmt.
	Format string
	// Debug forces debug level.
	Debug bool
	// Timestamps adds a timestamp to every line.
	Timestamps bool
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level := log.WarnLevel
	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q", opts.Level)
		}
		level = l
	}
	if opts.Debug {
		level = log.DebugLevel
	}
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: opts.Timestamps,
		Prefix:          Prefix,
	}), nil
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("invalid log format %q", s)
}
